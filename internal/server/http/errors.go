package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ariaerrors "aria/internal/errors"
	"aria/internal/intent"
	"aria/internal/pipeline"
	"aria/internal/speech"
	"aria/internal/store"
)

// respondError translates internal failures into the API's error envelope.
// Upstream provider errors never leak raw; they surface as a code plus a
// short human message.
func respondError(c *gin.Context, err error) {
	var speechErr *speech.Error
	if errors.As(err, &speechErr) {
		c.JSON(speechErr.Code.HTTPStatus(), gin.H{
			"error":   "transcription failed",
			"details": speechErr.Err.Error(),
			"code":    string(speechErr.Code),
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, intent.ErrEmptyUtterance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "utterance is empty"})
	case errors.Is(err, pipeline.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "session busy"})
	case errors.Is(err, pipeline.ErrNothingPending):
		c.JSON(http.StatusConflict, gin.H{"error": "nothing awaiting confirmation"})
	case errors.Is(err, pipeline.ErrNotListening):
		c.JSON(http.StatusConflict, gin.H{"error": "session is not listening"})
	case ariaerrors.IsTransient(err):
		// Transcription maps its own transient failures to 503 through the
		// speech.Error branch above. Everything else, parse included,
		// reports a plain 500.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "upstream temporarily unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
			"code":  string(speech.CodeUnknown),
		})
	}
}
