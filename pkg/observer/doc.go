// Package observer keeps the session of one browser in view.
//
// An Observer subscribes once to an identity.Adapter and fans each change
// out to any number of listeners: the navigation stream, route guards and
// the sign-in controller. Listeners receive nil on sign-out.
//
//	obs := observer.New(client, observer.WithLogger(log))
//	defer obs.Close()
//	cancel := obs.Observe("nav", func(s *identity.Session) { render(s) })
//	defer cancel()
//
// A panicking listener is logged and does not stop delivery to the others.
package observer
