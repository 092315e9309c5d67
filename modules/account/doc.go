// Package account mounts the sign-in screen, the navigation stream and the
// account page.
//
// Every request gets a browser ID from a signed cookie, an identity.Client
// bound to that browser and an observer.Observer on top of it. Both are
// closed when the request ends. Sign-in pages build a signin.Controller
// per request; /session/events keeps a Datastar stream open and patches
// the navigation bar whenever the browser's session changes.
//
//	m := account.New(svc, cookies, pendingintent.NewCookieFactory(cookies, 15*time.Minute, log), cfg,
//		account.WithLogger(log),
//		account.WithRecorder(collector),
//	)
//	r.Mount("/", m.Routes())
package account
