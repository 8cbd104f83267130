package handler

import (
	"errors"
	"net/http"

	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind"`
	Detail map[string]string `json:"detail,omitempty"`
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindInvalidFormat:
		return http.StatusBadRequest
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps err to a status code and JSON body. Errors that are not
// *model.Error are logged and reported as internal without details.
func WriteError(w http.ResponseWriter, err error, logger *logger.Logger) {
	kind := model.KindOf(err)
	if kind == model.KindInternal {
		logger.Error("HTTP handler: internal error",
			"error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal server error",
			Kind:  kind.String(),
		})
		return
	}

	resp := errorResponse{Error: err.Error(), Kind: kind.String()}
	// detail of credential failures would reveal account state
	if kind != model.KindUnauthorized {
		var e *model.Error
		if errors.As(err, &e) {
			resp.Detail = e.Detail
		}
	}
	writeJSON(w, statusFor(kind), resp)
}
