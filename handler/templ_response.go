package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// TemplComponent is satisfied by templ.Component.
type TemplComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

// TemplOption configures a Datastar element patch.
type TemplOption = datastar.PatchElementOption

// WithTarget patches the element matching selector instead of the one with
// the component's root id.
func WithTarget(selector string) TemplOption {
	return datastar.WithSelector(selector)
}

func WithPatchMode(mode datastar.ElementPatchMode) TemplOption {
	return datastar.WithMode(mode)
}

// TemplPatch is one component and its patch options.
type TemplPatch struct {
	Component TemplComponent
	Options   []TemplOption
}

func Patch(component TemplComponent, opts ...TemplOption) TemplPatch {
	return TemplPatch{Component: component, Options: opts}
}

type templResponse struct {
	partial TemplComponent
	full    TemplComponent
	status  int
	options []TemplOption
}

func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).PatchElementTempl(t.partial, t.options...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if t.status != 0 {
		w.WriteHeader(t.status)
	}
	return t.full.Render(r.Context(), w)
}

// Templ renders component as HTML, or patches it in for Datastar requests.
func Templ(component TemplComponent, opts ...TemplOption) Response {
	return templResponse{partial: component, full: component, options: opts}
}

// TemplWithStatus is Templ with a status code for plain HTML responses.
func TemplWithStatus(component TemplComponent, status int) Response {
	return templResponse{partial: component, full: component, status: status}
}

// TemplPartial patches partial for Datastar requests and renders full
// otherwise.
func TemplPartial(partial, full TemplComponent, opts ...TemplOption) Response {
	return templResponse{partial: partial, full: full, options: opts}
}

type templMultiResponse struct {
	patches []TemplPatch
}

func (t templMultiResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		sse := datastar.NewSSE(w, r)
		for _, p := range t.patches {
			if err := sse.PatchElementTempl(p.Component, p.Options...); err != nil {
				return err
			}
		}
		return nil
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	for _, p := range t.patches {
		if err := p.Component.Render(r.Context(), w); err != nil {
			return err
		}
	}
	return nil
}

// TemplMulti sends several patches at once; plain requests get the
// components concatenated.
func TemplMulti(patches ...TemplPatch) Response {
	return templMultiResponse{patches: patches}
}
