package apierr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	mysql "github.com/go-sql-driver/mysql"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnprocessable   Code = "UNPROCESSABLE"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError         { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrUnauthenticated(msg string) *APIError { return &APIError{Code: CodeUnauthenticated, Message: msg} }
func ErrForbidden(msg string) *APIError       { return &APIError{Code: CodeForbidden, Message: msg} }
func ErrNotFound(msg string) *APIError        { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError        { return &APIError{Code: CodeConflict, Message: msg} }
func ErrUnprocessable(msg string) *APIError   { return &APIError{Code: CodeUnprocessable, Message: msg} }
func ErrInternal(msg string) *APIError        { return &APIError{Code: CodeInternal, Message: msg} }

// Is: err が指定コードの APIError か
func Is(err error, code Code) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == code
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeUnauthenticated:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeUnprocessable:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

type ErrorDTO struct {
	Error *APIError `json:"error"`
}

func Body(code Code, msg string) ErrorDTO {
	return ErrorDTO{Error: &APIError{Code: code, Message: msg}}
}

// FromErr は未分類のエラーを INTERNAL に丸める。内部メッセージは外に出さずログにだけ残す
func FromErr(err error) ErrorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return ErrorDTO{Error: api}
	}
	log.Printf("[ERROR] %v", err)
	return Body(CodeInternal, "internal error")
}

// ===== MySQL =====

const (
	mysqlDuplicateKey    = 1062
	mysqlRowIsReferenced = 1451
	mysqlForeignKeyFails = 1452
)

func IsDuplicateKey(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateKey }
func IsForeignKey(err error) bool   { return mysqlErrNumber(err) == mysqlForeignKeyFails }
func IsReferenced(err error) bool   { return mysqlErrNumber(err) == mysqlRowIsReferenced }

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
