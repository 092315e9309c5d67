package account

import (
	"net/http"

	"github.com/linkaura/linkaura/handler"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/pendingintent"
	"github.com/linkaura/linkaura/pkg/signin"
)

type emailRequest struct {
	Email string `form:"email"`
}

type confirmRequest struct {
	Email string `form:"email"`
	Link  string `form:"link"`
}

type providerRequest struct {
	Provider string `path:"provider"`
}

func (m *Module) pendingStore(ctx handler.Context) pendingintent.Store {
	return m.pending.For(ctx.ResponseWriter(), ctx.Request(), BrowserID(ctx))
}

// controller builds the sign-in flow for one request. Close it before the
// request ends.
func (m *Module) controller(ctx handler.Context, pending pendingintent.Store) *signin.Controller {
	opts := []signin.Option{
		signin.WithLogger(m.logger),
		signin.WithTimeout(m.timeout),
	}
	if m.recorder != nil {
		opts = append(opts, signin.WithRecorder(m.recorder))
	}
	if obs := SessionObserver(ctx); obs != nil {
		opts = append(opts, signin.WithSessionSource(obs))
	}
	return signin.New(identityClient(ctx), pending, signin.Config{
		ContinueURL: m.continueURL(),
		LandingURL:  m.cfg.LandingPath,
	}, opts...)
}

// loginPage shows the sign-in screen. Opened through a sign-in link it
// completes the link with the address saved in this browser, or asks for
// it.
func (m *Module) loginPage(ctx handler.Context, _ struct{}) handler.Response {
	pending := m.pendingStore(ctx)
	ctrl := m.controller(ctx, pending)
	defer ctrl.Close()

	link := m.pageURL(ctx.Request())
	if err := ctrl.DetectLink(ctx, link); err != nil {
		return handler.Error(err)
	}
	if dest := ctrl.Destination(); dest != "" {
		return handler.Redirect(dest)
	}
	if ctrl.State() == signin.StateIdle && CurrentSession(ctx) != nil {
		// Signed in elsewhere; the address is no longer pending.
		pending.ClearPendingEmail()
		return handler.Redirect(m.cfg.LandingPath)
	}
	return m.signInResponse(ctx, ctrl, link)
}

func (m *Module) submit(ctx handler.Context, req emailRequest) handler.Response {
	ctrl := m.controller(ctx, m.pendingStore(ctx))
	defer ctrl.Close()

	if err := ctrl.Submit(ctx, req.Email); err != nil {
		return handler.Error(err)
	}
	return m.signInResponse(ctx, ctrl, "")
}

// resend sends another link to the address of the last one.
func (m *Module) resend(ctx handler.Context, _ struct{}) handler.Response {
	pending := m.pendingStore(ctx)
	ctrl := m.controller(ctx, pending)
	defer ctrl.Close()

	email, ok := pending.LoadPendingEmail()
	if !ok {
		return m.signInResponse(ctx, ctrl, "")
	}
	if err := ctrl.Submit(ctx, email); err != nil {
		return handler.Error(err)
	}
	return m.signInResponse(ctx, ctrl, "")
}

// confirm completes a link with the address the user typed, for links
// opened in a browser that did not request them.
func (m *Module) confirm(ctx handler.Context, req confirmRequest) handler.Response {
	ctrl := m.controller(ctx, m.pendingStore(ctx))
	defer ctrl.Close()

	if err := ctrl.DetectLink(ctx, req.Link); err != nil {
		return handler.Error(err)
	}
	if ctrl.State() == signin.StateIdle {
		params := m.signInParams(ctx, ctrl, "")
		params.Form.Outcome = signin.OutcomeAuthError
		params.Form.ErrorMessage = signin.ReasonExpiredLink.Message()
		return m.render(params)
	}
	if ctrl.Form().PromptEmail {
		if err := ctrl.ConfirmEmail(ctx, req.Email); err != nil {
			return handler.Error(err)
		}
	}
	if dest := ctrl.Destination(); dest != "" {
		return handler.Redirect(dest)
	}
	return m.signInResponse(ctx, ctrl, req.Link)
}

// beginProvider sends the browser to the provider consent screen.
func (m *Module) beginProvider(ctx handler.Context, req providerRequest) handler.Response {
	ctrl := m.controller(ctx, m.pendingStore(ctx))
	defer ctrl.Close()

	authURL, err := ctrl.BeginProviderSignIn(ctx, req.Provider)
	if err != nil {
		if ctrl.State() != signin.StateFailed {
			return handler.Error(err)
		}
		return m.signInResponse(ctx, ctrl, "")
	}
	return handler.RedirectWithCode(authURL, http.StatusFound)
}

func (m *Module) providerCallback(ctx handler.Context, req providerRequest) handler.Response {
	ctrl := m.controller(ctx, m.pendingStore(ctx))
	defer ctrl.Close()

	cb := identity.CallbackFromQuery(ctx.Request().URL.Query())
	if err := ctrl.SignInWithProvider(ctx, req.Provider, cb); err != nil {
		return handler.Error(err)
	}
	if dest := ctrl.Destination(); dest != "" {
		return handler.Redirect(dest)
	}
	return m.signInResponse(ctx, ctrl, "")
}

func (m *Module) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := identityClient(ctx).SignOut(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.Redirect(LoginPath)
}

func (m *Module) accountPage(ctx handler.Context, _ struct{}) handler.Response {
	return handler.Templ(m.views.AccountPage(AccountParams{Session: CurrentSession(ctx)}))
}

func (m *Module) signInParams(ctx handler.Context, ctrl *signin.Controller, link string) SignInParams {
	form := ctrl.Form()
	if !form.PromptEmail || ctrl.Reason() == signin.ReasonExpiredLink {
		link = ""
	}
	return SignInParams{
		Form:      form,
		Link:      link,
		Providers: m.svc.Providers(),
		Session:   CurrentSession(ctx),
	}
}

func (m *Module) signInResponse(ctx handler.Context, ctrl *signin.Controller, link string) handler.Response {
	return m.render(m.signInParams(ctx, ctrl, link))
}

func (m *Module) render(params SignInParams) handler.Response {
	return handler.TemplPartial(
		m.views.SignInForm(params),
		m.views.SignInPage(params),
		handler.WithTarget("#"+SignInFormID),
	)
}
