package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/matzehuels/docdesigner/pkg/errors"
)

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidImport, errors.ErrCodeInvalidField,
		errors.ErrCodeInvalidOption, errors.ErrCodeInvalidWidth, errors.ErrCodeInvalidKey,
		errors.ErrCodeInvalidConfig, errors.ErrCodeUnknownKind:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeTemplateNotFound, errors.ErrCodeModuleNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRemoteUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
		msg = "internal error"
	}
	s.writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func (s *Server) fail(w http.ResponseWriter, code errors.Code, format string, args ...any) {
	s.writeError(w, errors.New(code, format, args...))
}

// decode reads a JSON request body into v. Numbers decode as json.Number.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}
