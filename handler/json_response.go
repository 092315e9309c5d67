package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON answers 200 with v as data.
func JSON(v any) Response {
	return jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
}

// JSONWithStatus answers status with v as data.
func JSONWithStatus(v any, status int) Response {
	return jsonResponse{status: status, body: JSONResponse{Data: v}}
}

// JSONError answers with an error body whose status follows err.
func JSONError(err error) Response {
	r := jsonResponse{status: http.StatusInternalServerError}
	detail := &ErrorDetail{Code: "internal_error", Message: http.StatusText(http.StatusInternalServerError)}

	var valErr ValidationError
	var httpErr HTTPError
	switch {
	case errors.As(err, &valErr):
		r.status = http.StatusUnprocessableEntity
		detail = &ErrorDetail{Code: "validation_error", Message: valErr.Error(), Details: valErr}
	case errors.As(err, &httpErr):
		r.status = httpErr.Code
		detail = &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	}
	r.body.Error = detail
	return r
}
