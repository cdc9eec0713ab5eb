package loans

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

	r.Member.GET("/loans", h.List)
	r.Member.GET("/loans/:loan_id", h.Get)
	r.Staff.POST("/loans", h.Create)
	r.Staff.POST("/loans/:loan_id/return", h.Return)
	r.Staff.POST("/loans/:loan_id/lost", h.MarkLost)
	r.Staff.POST("/loans/:loan_id/extend", h.Extend)
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

// GET /loans?user_id=&book_id=&status=&overdue=true
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
	if b := paging.OptBool(c.Query("overdue")); b != nil && *b {
		f.Overdue = true
	}
	res, err := h.svc.List(c.Request.Context(), p, f, paging.FromQuery(c))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), p, c.Param("loan_id"))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Return(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.Return(c.Request.Context(), p, c.Param("loan_id"))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) MarkLost(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.svc.MarkLost(c.Request.Context(), p, c.Param("loan_id"))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Extend(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Extend(c.Request.Context(), p, c.Param("loan_id"), req)
	respond(c, http.StatusOK, res, err)
}
