package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/middleware"
	"github.com/dukerupert/deltamc/internal/telemetry"
)

// ErrorResponse writes err to the client. JSON clients get
// {"error":{"code","message"}}, everything else a plain text message.
// Internal errors are logged with their details and reported with a generic
// message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsValidationError(err) {
		ValidationErrorResponse(w, r, err)
		return
	}

	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(r, err, code, status)
	if status >= 500 {
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"op":   domain.ErrorOp(err),
			"path": r.URL.Path,
		})
	}

	if acceptsJSON(r) {
		writeErrorJSON(w, status, map[string]interface{}{
			"code":    code,
			"message": message,
		})
		return
	}

	http.Error(w, message, status)
}

// ValidationErrorResponse writes field errors. Non-validation errors fall
// back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if !domain.IsValidationError(err) {
		ErrorResponse(w, r, err)
		return
	}

	fields := domain.ValidationFields(err)
	message := "Controleer de ingevulde gegevens"
	logError(r, err, domain.EINVALID, http.StatusBadRequest)

	if acceptsJSON(r) {
		writeErrorJSON(w, http.StatusBadRequest, map[string]interface{}{
			"code":    domain.EINVALID,
			"message": message,
			"fields":  fields,
		})
		return
	}

	http.Error(w, message, http.StatusBadRequest)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func logError(r *http.Request, err error, code string, status int) {
	logger := middleware.GetLogger(r.Context(), slog.Default())

	attrs := []any{
		"error", errString(err),
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeErrorJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": body})
}

func acceptsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
