// Package docs は swag の登録情報（`swag init` の出力と同じ形）
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/login": {"post": {"tags": ["auth"], "summary": "Issue a JWT", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/register": {"post": {"tags": ["auth"], "summary": "Create a reader account", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/logout": {"post": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Revoke the current token", "responses": {"204": {"description": "No Content"}}}},
        "/me": {"get": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Current account", "responses": {"200": {"description": "OK"}}}},
        "/me/credential": {"put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Upload school credential (multipart field credential)", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/books": {
            "get": {"tags": ["books"], "summary": "Search books (q, category_id, genre_id, publisher_id, author_id, available)", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Create book", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/books/{book_id}": {
            "get": {"tags": ["books"], "summary": "Book detail", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Update book", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Delete book", "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/books/{book_id}/cover": {"put": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Replace cover image (multipart field cover)", "responses": {"200": {"description": "OK"}}}},
        "/books/{book_id}/inventory": {
            "get": {"tags": ["inventory"], "summary": "Inventory of a book", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["inventory"], "security": [{"BearerAuth": []}], "summary": "Upsert inventory", "responses": {"200": {"description": "OK"}}}
        },
        "/books/{book_id}/inventory/adjust": {"post": {"tags": ["inventory"], "security": [{"BearerAuth": []}], "summary": "Adjust quantity by delta", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable"}}}},
        "/books/{book_id}/disposals": {"post": {"tags": ["disposals"], "security": [{"BearerAuth": []}], "summary": "Write off copies", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/disposals": {"get": {"tags": ["disposals"], "security": [{"BearerAuth": []}], "summary": "List write-offs (book_id, from, to)", "responses": {"200": {"description": "OK"}}}},
        "/disposals/{disposal_id}": {"get": {"tags": ["disposals"], "security": [{"BearerAuth": []}], "summary": "Get write-off", "responses": {"200": {"description": "OK"}}}},
        "/inventories": {"get": {"tags": ["inventory"], "security": [{"BearerAuth": []}], "summary": "List inventories (low_stock)", "responses": {"200": {"description": "OK"}}}},
        "/{kind}": {
            "get": {"tags": ["taxonomy"], "summary": "List authors, categories, genres or publishers", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["taxonomy"], "security": [{"BearerAuth": []}], "summary": "Create entry", "responses": {"201": {"description": "Created"}}}
        },
        "/{kind}/{id}": {
            "get": {"tags": ["taxonomy"], "summary": "Get entry", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["taxonomy"], "security": [{"BearerAuth": []}], "summary": "Update entry", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["taxonomy"], "security": [{"BearerAuth": []}], "summary": "Delete entry (disabled when referenced)", "responses": {"200": {"description": "OK"}}}
        },
        "/reservations": {
            "get": {"tags": ["reservations"], "security": [{"BearerAuth": []}], "summary": "List reservations", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["reservations"], "security": [{"BearerAuth": []}], "summary": "Reserve a book", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable"}}}
        },
        "/reservations/{reservation_id}": {"get": {"tags": ["reservations"], "security": [{"BearerAuth": []}], "summary": "Get reservation", "responses": {"200": {"description": "OK"}}}},
        "/reservations/{reservation_id}/approve": {"post": {"tags": ["reservations"], "security": [{"BearerAuth": []}], "summary": "Approve", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable"}}}},
        "/reservations/{reservation_id}/reject": {"post": {"tags": ["reservations"], "security": [{"BearerAuth": []}], "summary": "Reject with reason", "responses": {"200": {"description": "OK"}}}},
        "/reservations/{reservation_id}/cancel": {"post": {"tags": ["reservations"], "security": [{"BearerAuth": []}], "summary": "Cancel a pending reservation", "responses": {"200": {"description": "OK"}}}},
        "/loans": {
            "get": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "List loans (overdue)", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Lend a book", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable"}}}
        },
        "/loans/{loan_id}": {"get": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Get loan", "responses": {"200": {"description": "OK"}}}},
        "/loans/{loan_id}/return": {"post": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Return and settle fine", "responses": {"200": {"description": "OK"}}}},
        "/loans/{loan_id}/lost": {"post": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Mark as lost", "responses": {"200": {"description": "OK"}}}},
        "/loans/{loan_id}/extend": {"post": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Extend due date", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable"}}}},
        "/users": {"get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "List users", "responses": {"200": {"description": "OK"}}}},
        "/users/{user_id}": {
            "get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Get user", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Delete user", "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/users/{user_id}/role": {"put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Change role", "responses": {"200": {"description": "OK"}}}},
        "/users/{user_id}/status": {"put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Enable or disable", "responses": {"200": {"description": "OK"}}}},
        "/users/{user_id}/credential/verify": {"post": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Verify credential", "responses": {"200": {"description": "OK"}}}},
        "/users/{user_id}/credential/reject": {"post": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Reject credential", "responses": {"200": {"description": "OK"}}}},
        "/reports/{kind}": {"get": {"tags": ["reports"], "security": [{"BearerAuth": []}], "summary": "Export loans, books or reservations (format=csv|excel|pdf, from, to)", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"https"},
	Title:            "BIBLIO API",
	Description:      "School library: catalog, inventory, reservations, loans and reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
