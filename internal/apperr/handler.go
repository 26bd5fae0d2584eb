package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

func GlobalErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *ValidationError
		if errors.As(err, &ve) {
			_ = c.JSON(http.StatusBadRequest, map[string]string{"error": ve.Error(), "title": "validation error"})
			return
		}

		if status, title := StatusOf(err); status != http.StatusInternalServerError {
			_ = c.JSON(status, map[string]string{"error": err.Error(), "title": title})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := fmt.Sprintf("%v", he.Message)
			_ = c.JSON(he.Code, map[string]string{"error": msg})
			return
		}

		slog.Error("Unhandled error", "error", err)
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// StatusOf maps a pipeline error to an HTTP status and a short title.
func StatusOf(err error) (int, string) {
	var (
		vf *ValidationFailedError
		nf *TableNotFoundError
		sm *SchemaMismatchError
		ne *TableNotEmptyError
		rr *RowRejectedError
		to *TimeoutError
	)
	switch {
	case errors.As(err, &vf):
		return http.StatusBadRequest, "validation failed"
	case errors.As(err, &to):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &nf):
		return http.StatusNotFound, "table not found"
	case errors.As(err, &sm):
		return http.StatusConflict, "schema mismatch"
	case errors.As(err, &ne):
		return http.StatusConflict, "table not empty"
	case errors.As(err, &rr):
		return http.StatusUnprocessableEntity, "rows rejected"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
