package account

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/linkaura/linkaura/handler"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/signin"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var providerLabels = map[string]string{
	identity.ProviderGoogle: "Google",
	identity.ProviderGitHub: "GitHub",
}

// DefaultViews returns plain, unstyled views.
func DefaultViews() Views {
	return Views{
		SignInPage:  signInPage,
		SignInForm:  signInForm,
		Nav:         nav,
		AccountPage: accountPage,
		ErrorPage:   errorPage,
		ErrorToast:  errorToast,
	}
}

// html writes markup and keeps the first write error.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *html) raw(format string, args ...any) {
	if h.err == nil {
		_, h.err = fmt.Fprintf(h.w, format, args...)
	}
}

func (h *html) component(c templ.Component) {
	if h.err == nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func render(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// layout wraps body in a page. events is the session stream the page
// listens to.
func layout(title string, sess *identity.Session, events string, body templ.Component) templ.Component {
	return render(func(h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>%s</title>`, esc(title))
		h.raw(`<script type="module" src="%s"></script></head><body>`, datastarScript)
		h.raw(`<header data-init="@get('%s')">`, esc(events))
		h.component(nav(NavParams{Session: sess}))
		h.raw(`</header><main>`)
		h.component(body)
		h.raw(`</main><div id="%s" aria-live="polite"></div></body></html>`, ToastsID)
	})
}

func nav(p NavParams) templ.Component {
	return render(func(h *html) {
		h.raw(`<nav id="%s">`, NavID)
		if p.Session == nil {
			h.raw(`<a href="%s">Sign in</a>`, LoginPath)
		} else {
			h.raw(`<span class="account-name">%s</span> <a href="/account">Account</a>`, esc(p.Session.Name()))
			h.raw(`<form method="post" action="%s" data-on:submit="@post('%s')"><button type="submit">Sign out</button></form>`, LogoutPath, LogoutPath)
		}
		h.raw(`</nav>`)
	})
}

func signInPage(p SignInParams) templ.Component {
	return layout("Sign in", p.Session, EventsPath, signInForm(p))
}

func signInForm(p SignInParams) templ.Component {
	return render(func(h *html) {
		f := p.Form
		h.raw(`<section id="%s">`, SignInFormID)
		if f.Outcome == signin.OutcomeLinkSent && f.Notice != "" {
			h.raw(`<p class="notice" role="status">%s</p>`, esc(f.Notice))
		}
		if f.Outcome == signin.OutcomeAuthError && f.ErrorMessage != "" {
			h.raw(`<p class="error" role="alert">%s</p>`, esc(f.ErrorMessage))
		}

		if p.Link != "" {
			h.raw(`<form method="post" action="%s" data-on:submit="@post('%s', {contentType: 'form'})">`, confirmPath, confirmPath)
			h.raw(`<p>Enter the email address this sign-in link was sent to.</p>`)
			h.raw(`<input type="hidden" name="link" value="%s">`, esc(p.Link))
			emailField(h, f)
			h.raw(`<button type="submit"%s>Sign in</button></form>`, disabled(f.Submitting))
			h.raw(`</section>`)
			return
		}

		h.raw(`<form method="post" action="%s" data-on:submit="@post('%s', {contentType: 'form'})">`, LoginPath, LoginPath)
		emailField(h, f)
		h.raw(`<button type="submit"%s>Email me a sign-in link</button></form>`, disabled(f.Submitting))
		if f.Outcome == signin.OutcomeLinkSent {
			h.raw(`<form method="post" action="%s" data-on:submit="@post('%s', {contentType: 'form'})">`, resendPath, resendPath)
			h.raw(`<button type="submit">Resend link</button></form>`)
		}

		if len(p.Providers) > 0 {
			h.raw(`<div class="providers">`)
			for _, id := range p.Providers {
				label, ok := providerLabels[id]
				if !ok {
					label = id
				}
				h.raw(`<a href="%s/%s">Continue with %s</a>`, LoginPath, esc(id), esc(label))
			}
			h.raw(`</div>`)
		}
		h.raw(`</section>`)
	})
}

func emailField(h *html, f signin.FormState) {
	msg := f.FieldErrors["email"]
	h.raw(`<label for="email">Email</label>`)
	h.raw(`<input id="email" type="email" name="email" autocomplete="email" value="%s"`, esc(f.Email))
	if msg != "" {
		h.raw(` aria-invalid="true" aria-describedby="email-error"`)
	}
	h.raw(`%s>`, disabled(f.Submitting))
	if msg != "" {
		h.raw(`<p id="email-error" class="field-error">%s</p>`, esc(msg))
	}
}

func disabled(b bool) string {
	if b {
		return " disabled"
	}
	return ""
}

func accountPage(p AccountParams) templ.Component {
	body := render(func(h *html) {
		h.raw(`<h1>Your account</h1><dl>`)
		h.raw(`<dt>Name</dt><dd>%s</dd>`, esc(p.Session.Name()))
		if p.Session.Email != "" {
			h.raw(`<dt>Email</dt><dd>%s</dd>`, esc(p.Session.Email))
		}
		label, ok := providerLabels[p.Session.Provider]
		if !ok {
			label = "Email link"
		}
		h.raw(`<dt>Signed in with</dt><dd>%s</dd>`, esc(label))
		h.raw(`<dt>Session expires</dt><dd>%s</dd></dl>`, esc(p.Session.ExpiresAt.UTC().Format("2006-01-02 15:04 MST")))
	})
	return layout("Account", p.Session, EventsPath+"?guard=true", body)
}

func errorPage(p handler.ErrorPageParams) templ.Component {
	return render(func(h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Error %d</title></head><body>`, p.StatusCode)
		h.raw(`<main><h1>%d</h1><p>%s</p>`, p.StatusCode, esc(p.Message))
		if p.RequestID != "" {
			h.raw(`<p class="request-id">Request ID: <code>%s</code></p>`, esc(p.RequestID))
		}
		h.raw(`<a href="%s">Back to sign in</a></main></body></html>`, LoginPath)
	})
}

func errorToast(p handler.ErrorToastParams) templ.Component {
	return render(func(h *html) {
		h.raw(`<div class="toast toast-%s" role="alert">%s`, esc(strings.ToLower(p.Type)), esc(p.Message))
		if p.RequestID != "" {
			h.raw(` <small>%s</small>`, esc(p.RequestID))
		}
		h.raw(`</div>`)
	})
}
