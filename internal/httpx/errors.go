package httpx

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/KavishaPerera/Wash-TUB-sub000/internal/catalog"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/order"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "http").Logger()

// JSONError maps the domain error taxonomy to HTTP responses. Validation
// and forbidden errors carry precise messages, not-found stays generic,
// everything else is logged in full and surfaced opaque.
func JSONError(c *gin.Context, err error) {
	var oVal *order.ValidationError
	var cVal *catalog.ValidationError
	switch {
	case errors.As(err, &oVal):
		c.JSON(http.StatusBadRequest, gin.H{"error": oVal.Error(), "field": oVal.Field})
	case errors.As(err, &cVal):
		c.JSON(http.StatusBadRequest, gin.H{"error": cVal.Error(), "field": cVal.Field})
	case errors.Is(err, order.ErrForbidden), errors.Is(err, catalog.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, order.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, catalog.ErrNoActivePrice):
		c.JSON(http.StatusConflict, gin.H{"error": catalog.ErrNoActivePrice.Error()})
	default:
		logger.Error().Err(err).Str("rid", c.GetString("rid")).
			Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
