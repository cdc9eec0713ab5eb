package disposals

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/paging"
	"BIBLIO-backend/internal/platform/validate"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r auth.Routes, svc *Service) {
	h := &Handler{svc: svc}
	r.Staff.POST("/books/:book_id/disposals", h.Create)
	r.Staff.GET("/disposals", h.List)
	r.Staff.GET("/disposals/:disposal_id", h.Get)
}

func respond(c *gin.Context, status int, res any, err error) {
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(status, res)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, msg))
}

func (h *Handler) Create(c *gin.Context) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "unauthenticated"))
		return
	}
	bookID, ok := paging.ParseUintParam(c.Param("book_id"))
	if !ok {
		badRequest(c, "invalid book_id")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.svc.Create(c.Request.Context(), p, bookID, req)
	respond(c, http.StatusCreated, res, err)
}

// GET /disposals?book_id=&from=&to=（to はその日を含む）
func (h *Handler) List(c *gin.Context) {
	f := Filter{BookID: paging.OptUint(c.Query("book_id"))}
	if v := c.Query("from"); v != "" {
		t, err := validate.ParseDate(v)
		if err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := validate.ParseDate(v)
		if err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return
		}
		t = t.AddDate(0, 0, 1)
		f.To = &t
	}
	res, err := h.svc.List(c.Request.Context(), f, paging.FromQuery(c))
	respond(c, http.StatusOK, res, err)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("disposal_id"))
	respond(c, http.StatusOK, res, err)
}
