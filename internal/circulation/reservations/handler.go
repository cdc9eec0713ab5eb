package reservations

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r auth.Routes, svc *Service) {
	h := &Handler{svc: svc}

	r.Member.POST("/reservations", h.Create)
	r.Member.GET("/reservations", h.List)
	r.Member.GET("/reservations/:reservation_id", h.Get)
	r.Member.POST("/reservations/:reservation_id/cancel", h.Cancel)
	r.Staff.POST("/reservations/:reservation_id/approve", h.Approve)
	r.Staff.POST("/reservations/:reservation_id/reject", h.Reject)
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

func (h *Handler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), p, req)
	respond(c, http.StatusCreated, res, err)
}

// GET /reservations?user_id=&book_id=&status=
func (h *Handler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	f := Filter{
		UserID: paging.OptString(c.Query("user_id")),
		BookID: paging.OptUint(c.Query("book_id")),
	}
	if v := c.Query("status"); v != "" {
		st := Status(v)
		f.Status = &st
	}
	res, err := h.svc.List(c.Request.Context(), p, f, paging.FromQuery(c))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), p, c.Param("reservation_id"))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Approve(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.Approve(c.Request.Context(), p, c.Param("reservation_id"))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Reject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Reject(c.Request.Context(), p, c.Param("reservation_id"), req)
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Cancel(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.Cancel(c.Request.Context(), p, c.Param("reservation_id"))
	respond(c, http.StatusOK, res, err)
}
