// Package handler turns typed functions into http.HandlerFuncs for the
// Linkaura web layer.
//
// A HandlerFunc receives a Context and a request struct filled by binders,
// and returns a Response. Responses adapt to the caller: a Datastar request
// (Accept: text/event-stream) gets element patches over SSE, a plain browser
// request gets full HTML or a normal redirect.
//
//	type submitRequest struct {
//		Email string `form:"email"`
//	}
//
//	func (m *Module) submit(ctx handler.Context, req submitRequest) handler.Response {
//		if err := ctrl.Submit(ctx, req.Email); err != nil {
//			return handler.Error(err)
//		}
//		return handler.TemplPartial(views.SignInForm(ctrl.Form()), views.SignInPage(...))
//	}
//
//	r.Post("/login", handler.Wrap(m.submit,
//		handler.WithBinders[handler.Context, submitRequest](binder.Form()),
//		handler.WithErrorHandler[handler.Context, submitRequest](errorHandler),
//	))
//
// Errors returned by binders or responses go to the ErrorHandler. The one
// built by NewErrorHandler logs the error and renders an error page, or a
// toast for Datastar requests. HTTPError and ValidationError pick the
// status code.
//
// SSE keeps a Datastar connection open and hands the handler a
// StreamContext for pushing patches until the client goes away.
package handler
