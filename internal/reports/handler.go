package reports

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/validate"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r auth.Routes, svc *Service) {
	h := &Handler{svc: svc}
	r.Staff.GET("/reports/:kind", h.Export)
}

// parseRange: to はその日を含む
func parseRange(from, to string) (Range, error) {
	var r Range
	if from != "" {
		t, err := validate.ParseDate(from)
		if err != nil {
			return r, apierr.ErrInvalid("from must be YYYY-MM-DD")
		}
		r.From = &t
	}
	if to != "" {
		t, err := validate.ParseDate(to)
		if err != nil {
			return r, apierr.ErrInvalid("to must be YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		r.To = &t
	}
	return r, nil
}

// GET /reports/:kind?format=csv|excel|pdf&from=&to=
func (h *Handler) Export(c *gin.Context) {
	kind := Kind(c.Param("kind"))
	format := Format(c.DefaultQuery("format", string(FormatCSV)))
	if !format.Valid() {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "format must be csv, excel or pdf"))
		return
	}
	rng, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}

	t, err := h.svc.Build(c.Request.Context(), kind, rng)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}

	var buf bytes.Buffer
	if format == FormatPDF {
		err = WritePDF(&buf, t)
	} else {
		err = WriteCSV(&buf, t)
	}
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}

	name := fmt.Sprintf("%s_%s%s", kind, t.GeneratedAt.Format("20060102_150405"), format.Ext())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
