// Package binder fills request structs from HTTP form bodies, query strings
// and route parameters.
//
// Each binder reads its own struct tag (`form`, `query`, `path`) and leaves
// untagged or missing values at their zero value, so several binders can be
// applied to the same struct in turn:
//
//	type CallbackRequest struct {
//		Provider string `path:"provider"`
//		Code     string `query:"code"`
//		State    string `query:"state"`
//	}
//
//	r.Get("/login/{provider}/callback", handler.Wrap(h,
//		handler.WithBinders[handler.Context, CallbackRequest](
//			binder.Path(chi.URLParam),
//			binder.Query(),
//		),
//	))
//
// Form returns ErrBinderNotApplicable for requests without a form body, and
// handler.Wrap skips such binders.
package binder
