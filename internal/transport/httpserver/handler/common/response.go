package common

import (
	"encoding/json"
	"net/http"

	"ballot-app-go/internal/apperr"
	"ballot-app-go/pkg/logger"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, code, message)
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, payload)
}

func DecodeJSON(r *http.Request, dst interface{}) error {
	return decodeJSON(r, dst)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindState:
		return http.StatusConflict
	case apperr.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError logs err at the level its kind calls for and writes the
// matching response. Internal details never reach the client.
func WriteDomainError(w http.ResponseWriter, log logger.Logger, op string, err error, args ...any) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)

	switch kind {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindConflict, apperr.KindState:
		log.BusinessError(op, err, args...)
		writeError(w, status, apperr.CodeOf(err), err.Error())
	case apperr.KindTransient:
		log.InternalError(op, err, args...)
		w.Header().Set("Retry-After", "1")
		writeError(w, status, "store_unavailable", "service temporarily unavailable")
	case apperr.KindInvariant:
		log.Critical(op, append(args, "err", err)...)
		writeError(w, status, "internal_error", "internal error")
	default:
		log.InternalError(op, err, args...)
		writeError(w, status, "internal_error", "internal error")
	}
}
