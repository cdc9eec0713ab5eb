package reports

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
)

type stubVerifier map[string]auth.Principal

func (s stubVerifier) Verify(_ context.Context, token string) (auth.Principal, error) {
	p, ok := s[token]
	if !ok {
		return auth.Principal{}, apierr.ErrUnauthenticated("bad token")
	}
	return p, nil
}

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v := stubVerifier{
		"reader": {UserID: "u1", Role: auth.RoleReader},
		"staff":  {UserID: "L1", Role: auth.RoleLibrarian},
	}
	RegisterRoutes(auth.NewRoutes(r.Group("/api"), v), svc)
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Export(t *testing.T) {
	svc, fs := newService()
	fs.books = []BookRow{{BookID: 1, Title: "Rayuela", Quantity: 1, IsActive: true}}
	r := newRouter(svc)

	require.Equal(t, http.StatusForbidden, get(r, "/api/reports/books", "reader").Code)

	w := get(r, "/api/reports/books", "staff")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	require.Contains(t, w.Header().Get("Content-Disposition"), "books_20240115_160000.csv")
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))

	w = get(r, "/api/reports/books?format=pdf", "staff")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestHandler_ExportBadInput(t *testing.T) {
	svc, fs := newService()
	r := newRouter(svc)

	require.Equal(t, http.StatusBadRequest, get(r, "/api/reports/loans?format=xml", "staff").Code)
	require.Equal(t, http.StatusBadRequest, get(r, "/api/reports/loans?from=15-01-2024", "staff").Code)
	require.Equal(t, http.StatusNotFound, get(r, "/api/reports/users", "staff").Code)

	require.Equal(t, http.StatusOK, get(r, "/api/reports/loans?from=2024-01-01&to=2024-01-31", "staff").Code)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *fs.lastRange.To)

	// 同日指定は 1 日分
	require.Equal(t, http.StatusOK, get(r, "/api/reports/loans?from=2024-01-05&to=2024-01-05", "staff").Code)
}
