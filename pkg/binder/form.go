package binder

import (
	"fmt"
	"mime"
	"net/http"
)

// DefaultMaxMemory bounds multipart parsing.
const DefaultMaxMemory = 1 << 20

// Form binds `form` tagged fields from urlencoded or multipart bodies.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
			return ErrBinderNotApplicable
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedMediaType, err)
		}

		switch mediaType {
		case "application/x-www-form-urlencoded":
			err = r.ParseForm()
		case "multipart/form-data":
			err = r.ParseMultipartForm(DefaultMaxMemory)
		default:
			// Datastar posts signals as JSON; those requests are bound elsewhere.
			return ErrBinderNotApplicable
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}

		return bindValues(v, "form", func(name string) []string { return r.PostForm[name] }, ErrInvalidForm)
	}
}
