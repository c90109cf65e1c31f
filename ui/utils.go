package ui

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"goanova/internal/errors"
)

// statusFor maps application error codes to HTTP statuses. Unknown-reference
// codes are 404, unsupported requests 422, validation and degeneracy 400,
// anything else 500.
func statusFor(code string) int {
	switch code {
	case errors.CodeTableNotFound, errors.CodeColumnNotFound:
		return http.StatusNotFound
	case errors.CodeNotSupported:
		return http.StatusUnprocessableEntity
	case errors.CodeInvalidInput,
		errors.CodeColumnKind,
		errors.CodeIncompleteLabelMapping,
		errors.CodeNoIndependentVariable,
		errors.CodeSingularDesign,
		errors.CodeInsufficientFactorLevels,
		errors.CodeDegenerateTable:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("response encoding failed", zap.Error(err))
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	a.writeJSON(w, statusFor(code), map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": err.Error(),
		},
	})
}
