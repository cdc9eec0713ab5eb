package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r auth.Routes, svc *Service) {
	h := &Handler{svc: svc}

	r.Member.PUT("/me/credential", h.UploadCredential)
	r.Member.GET("/users/:user_id", h.Get)

	r.Staff.GET("/users", h.List)
	r.Staff.POST("/users/:user_id/credential/verify", h.VerifyCredential)
	r.Staff.POST("/users/:user_id/credential/reject", h.RejectCredential)

	r.Admin.PUT("/users/:user_id/role", h.SetRole)
	r.Admin.PUT("/users/:user_id/status", h.SetDisabled)
	r.Admin.DELETE("/users/:user_id", h.Delete)
}

func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "unauthenticated"))
	}
	return p, ok
}

func respond(c *gin.Context, status int, res any, err error) {
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(status, res)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
}

// GET /users?q=&role=&disabled=
func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Q:    paging.OptString(c.Query("q")),
		Role: paging.OptString(c.Query("role")),
	}
	if v := c.Query("disabled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "disabled must be true or false"))
			return
		}
		f.Disabled = &b
	}
	res, err := h.svc.List(c.Request.Context(), f, paging.FromQuery(c))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), p, c.Param("user_id"))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) SetRole(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.SetRole(c.Request.Context(), p, c.Param("user_id"), req)
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) SetDisabled(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.SetDisabled(c.Request.Context(), p, c.Param("user_id"), req)
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), p, c.Param("user_id")); err != nil {
		respond(c, 0, nil, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /me/credential (multipart: credential)
func (h *Handler) UploadCredential(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("credential")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "credential file is required"))
		return
	}
	res, err := h.svc.UploadCredential(c.Request.Context(), p, fh)
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) VerifyCredential(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.VerifyCredential(c.Request.Context(), p, c.Param("user_id"))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) RejectCredential(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req RejectCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.RejectCredential(c.Request.Context(), p, c.Param("user_id"), req)
	respond(c, http.StatusOK, res, err)
}
