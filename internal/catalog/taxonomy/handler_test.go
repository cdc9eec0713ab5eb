package taxonomy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
)

type stubVerifier map[string]auth.Principal

func (s stubVerifier) Verify(_ context.Context, token string) (auth.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return auth.Principal{}, apierr.ErrUnauthenticated("bad token")
}

func TestHandler_AllKindsRouted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newService()
	r := gin.New()
	RegisterRoutes(auth.NewRoutes(r.Group("/api"), stubVerifier{
		"staff":  {UserID: "L1", Role: auth.RoleLibrarian},
		"reader": {UserID: "u1", Role: auth.RoleReader},
	}), svc)

	for _, k := range Kinds() {
		body, _ := json.Marshal(map[string]string{"name": "Nuevo " + k.Label})

		req := httptest.NewRequest("POST", "/api/"+k.Path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer reader")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusForbidden, w.Code, k.Path)

		req = httptest.NewRequest("POST", "/api/"+k.Path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer staff")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, k.Path)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/"+k.Path+"?q=Nuevo", nil))
		require.Equal(t, http.StatusOK, w.Code, k.Path)
		var list struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.EqualValues(t, 1, list.Total, k.Path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/genres/zero", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
