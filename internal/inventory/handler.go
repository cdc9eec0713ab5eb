package inventory

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

	r.Staff.GET("/inventories", h.List)
	r.Public.GET("/books/:book_id/inventory", h.Get)
	r.Staff.PUT("/books/:book_id/inventory", h.Put)
	r.Staff.POST("/books/:book_id/inventory/adjust", h.Adjust)
}

func (h *Handler) List(c *gin.Context) {
	var f Filter
	if v := c.Query("condition"); v != "" {
		cond := Condition(v)
		f.Condition = &cond
	}
	if v := c.Query("status"); v != "" {
		st := Status(v)
		f.Status = &st
	}
	f.Location = paging.OptString(c.Query("location"))
	if v := c.Query("low_stock"); v == "true" || v == "1" {
		f.LowStock = true
	}

	res, err := h.svc.List(c.Request.Context(), f, paging.FromQuery(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := paging.ParseUintParam(c.Param("book_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Put(c *gin.Context) {
	id, ok := paging.ParseUintParam(c.Param("book_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	var req Input
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Put(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Adjust(c *gin.Context) {
	id, ok := paging.ParseUintParam(c.Param("book_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "book_id must be a number"))
		return
	}
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Adjust(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
