// Package signin drives the passwordless sign-in screen.
//
// A Controller owns one page load of the flow. It validates the address,
// asks the identity service to e-mail a sign-in link, remembers the
// address in a pendingintent.Store, and completes the link when the user
// comes back through it. Provider sign-in (Google, GitHub) runs through the
// same controller. All state changes go through a single transition table:
//
//	idle -> validating_input -> link_dispatching -> link_sent
//	idle -> link_mode_detected -> awaiting_email_confirmation -> completing -> authenticated
//	any failure -> failed
//
// Errors from the identity service are never shown as is. They are mapped
// to a Reason and its message:
//
//	ctrl := signin.New(client, pending, signin.Config{
//		ContinueURL: "https://app.example.com/login",
//		LandingURL:  "/account",
//	}, signin.WithLogger(log))
//	if err := ctrl.Submit(ctx, email); err != nil {
//		return err
//	}
//	form := ctrl.Form() // render banners and field errors
package signin
