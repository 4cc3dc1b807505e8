package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rollcall/internal/absence"
	"rollcall/internal/attendance"
	"rollcall/internal/calendar"
	"rollcall/internal/importer"
	"rollcall/internal/roster"
)

var errBadRequest = errors.New("bad request")

// respondError maps domain errors to HTTP statuses. Anything unknown is a
// 500 and is logged with its cause.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		verr *roster.ValidationError
		fe   *importer.FormatError
		se   *importer.SchemaError
		fie  *importer.FileError
		ie   *importer.ImportError
		mbe  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, roster.ErrNotFound), errors.Is(err, absence.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errors.Cause(err).Error()})
	case errors.Is(err, roster.ErrRollNumberExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &mbe):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
	case errors.As(err, &ie):
		c.JSON(http.StatusBadRequest, gin.H{"error": ie.Error(), "row": ie.Row})
	case errors.As(err, &fe), errors.As(err, &se), errors.As(err, &fie),
		errors.Is(err, attendance.ErrInvalidPosition),
		errors.Is(err, attendance.ErrInvalidDecision),
		errors.Is(err, calendar.ErrMalformedDate),
		errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
