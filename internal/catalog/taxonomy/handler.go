package taxonomy

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/paging"
)

type Handler struct {
	svc  *Service
	kind Kind
}

// RegisterRoutes: /authors /categories /genres /publishers を同じハンドラで登録
func RegisterRoutes(r auth.Routes, svc *Service) {
	for _, k := range Kinds() {
		h := &Handler{svc: svc, kind: k}
		base := "/" + k.Path
		r.Public.GET(base, h.List)
		r.Public.GET(base+"/:id", h.Get)
		r.Staff.POST(base, h.Create)
		r.Staff.PUT(base+"/:id", h.Update)
		r.Staff.DELETE(base+"/:id", h.Delete)
		r.Staff.PUT(base+"/:id/image", h.SetImage)
	}
}

func (h *Handler) id(c *gin.Context) (uint64, bool) {
	id, ok := paging.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid id"))
	}
	return id, ok
}

// GET /<kind>?q=&all=1
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), h.kind, c.Query("q"), c.Query("all"), paging.FromQuery(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), h.kind, id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), h.kind, req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), h.kind, id, req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	res, err := h.svc.Delete(c.Request.Context(), h.kind, id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /<kind>/:id/image (multipart: image)
func (h *Handler) SetImage(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "image file is required"))
		return
	}
	res, err := h.svc.SetImage(c.Request.Context(), h.kind, id, fh)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
