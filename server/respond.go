package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorResponse is the error envelope every RPC failure uses.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorResponse{Error: code, ErrorDescription: description})
}

// decodeAndValidate decodes the JSON body into req and runs struct-tag
// validation, so no handler body ever sees unvalidated input.
func (s *Server) decodeAndValidate(r *http.Request, req any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(req); err != nil {
		return errors.Wrap(err, "decoding request body")
	}
	if err := s.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return errors.Errorf("field %q failed %q validation", fe.Field(), fe.Tag())
		}
		return errors.Wrap(err, "validating request body")
	}
	return nil
}
