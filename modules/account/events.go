package account

import (
	"github.com/linkaura/linkaura/handler"
	"github.com/linkaura/linkaura/pkg/identity"
)

type eventsRequest struct {
	// Guard redirects to the sign-in screen once the session ends. Pages
	// behind requireSession open the stream with it.
	Guard bool `query:"guard"`
}

// sessionEvents streams the navigation bar for as long as the page stays
// open, patching it on every session change of this browser.
func (m *Module) sessionEvents(ctx handler.Context, req eventsRequest) handler.Response {
	obs := SessionObserver(ctx)
	return handler.SSE(func(stream handler.StreamContext) error {
		// Listeners run one at a time, so only the newest change is kept.
		changes := make(chan *identity.Session, 1)
		cancel := obs.Observe("nav", func(sess *identity.Session) {
			select {
			case <-changes:
			default:
			}
			changes <- sess
		})
		defer cancel()

		if err := stream.SendComponent(m.views.Nav(NavParams{Session: obs.Current()})); err != nil {
			return err
		}
		for {
			select {
			case <-stream.Done():
				return nil
			case sess := <-changes:
				if sess == nil && req.Guard {
					return stream.SSE().Redirect(LoginPath)
				}
				if err := stream.SendComponent(m.views.Nav(NavParams{Session: sess})); err != nil {
					return err
				}
			}
		}
	})
}
