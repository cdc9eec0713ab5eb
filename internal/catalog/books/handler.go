package books

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

	r.Public.GET("/books", h.List)
	r.Public.GET("/books/:book_id", h.Get)
	r.Staff.POST("/books", h.Create)
	r.Staff.PUT("/books/:book_id", h.Update)
	r.Staff.PUT("/books/:book_id/cover", h.SetCover)
	r.Admin.DELETE("/books/:book_id", h.Delete)
}

func isStaff(c *gin.Context) bool {
	p, ok := auth.PrincipalFrom(c)
	return ok && p.IsStaff()
}

func bookID(c *gin.Context) (uint64, bool) {
	id, ok := paging.ParseUintParam(c.Param("book_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "book_id must be a number"))
	}
	return id, ok
}

// GET /books?q=&category_id=&genre_id=&publisher_id=&author_id=&available=&active=
func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Q:           paging.OptString(c.Query("q")),
		CategoryID:  paging.OptUint(c.Query("category_id")),
		GenreID:     paging.OptUint(c.Query("genre_id")),
		PublisherID: paging.OptUint(c.Query("publisher_id")),
		AuthorID:    paging.OptUint(c.Query("author_id")),
		Available:   paging.OptBool(c.Query("available")),
		Active:      paging.OptBool(c.Query("active")),
	}
	res, err := h.svc.List(c.Request.Context(), f, paging.FromQuery(c), isStaff(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id, isStaff(c))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, err.Error()))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /books/:book_id/cover (multipart: cover)
func (h *Handler) SetCover(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "cover file is required"))
		return
	}
	res, err := h.svc.SetCover(c.Request.Context(), id, fh)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
