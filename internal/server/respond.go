package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every failed API response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    jsxerrors.ErrorType     `json:"type"`
	Code    string                  `json:"code,omitempty"`
	Message string                  `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and the error body. Foreign errors
// are reported as internal without their message.
func (s *PreviewServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var je *jsxerrors.JSXLiveError
	if !errors.As(err, &je) {
		s.logger.Error(r.Context(), err, "Unhandled request error", "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Type:    jsxerrors.ErrorTypeInternal,
			Code:    jsxerrors.ErrCodeInternalError,
			Message: "internal error",
		}})

		return
	}

	s.errors.Handle(r.Context(), err)
	detail := errorDetail{Type: je.Type, Code: je.Code, Message: je.Message, Context: je.Context}
	if je.Cause != nil && je.Type != jsxerrors.ErrorTypeInternal {
		detail.Message = je.Message + ": " + je.Cause.Error()
	}
	writeJSON(w, je.HTTPStatus(), errorBody{Error: detail})
}

// decodeJSON reads one JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, "invalid JSON body").
			WithContext("cause", err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, "body must contain a single JSON object")
	}

	return nil
}
