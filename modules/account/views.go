package account

import (
	"github.com/a-h/templ"

	"github.com/linkaura/linkaura/handler"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/signin"
)

// Element IDs the handlers patch.
const (
	SignInFormID = "signin-form"
	NavID        = "nav"
	ToastsID     = "toasts"
)

// SignInParams is the data of the sign-in page and form.
type SignInParams struct {
	Form signin.FormState
	// Link is the sign-in link waiting for the user to confirm their
	// address. Empty unless Form.PromptEmail is set.
	Link      string
	Providers []string
	Session   *identity.Session
}

type NavParams struct {
	Session *identity.Session
}

type AccountParams struct {
	Session *identity.Session
}

// Views renders the module's pages. SignInForm and Nav must render a
// single root element with SignInFormID and NavID.
type Views struct {
	SignInPage  func(SignInParams) templ.Component
	SignInForm  func(SignInParams) templ.Component
	Nav         func(NavParams) templ.Component
	AccountPage func(AccountParams) templ.Component
	ErrorPage   func(handler.ErrorPageParams) templ.Component
	ErrorToast  func(handler.ErrorToastParams) templ.Component
}

func (v Views) merge(o Views) Views {
	if o.SignInPage != nil {
		v.SignInPage = o.SignInPage
	}
	if o.SignInForm != nil {
		v.SignInForm = o.SignInForm
	}
	if o.Nav != nil {
		v.Nav = o.Nav
	}
	if o.AccountPage != nil {
		v.AccountPage = o.AccountPage
	}
	if o.ErrorPage != nil {
		v.ErrorPage = o.ErrorPage
	}
	if o.ErrorToast != nil {
		v.ErrorToast = o.ErrorToast
	}
	return v
}
