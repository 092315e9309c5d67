package identity

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

func signInLinkSubject(product string) string {
	return "Sign in to " + product
}

// signInLinkEmail is the HTML body of the sign-in e-mail.
func signInLinkEmail(product, link string, ttl time.Duration) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!doctype html>
<html><body style="font-family:sans-serif;line-height:1.5">
<h1 style="font-size:20px">Sign in to %[1]s</h1>
<p>Click the button below to finish signing in. The link works once and expires in %[3]s.</p>
<p><a href="%[2]s" style="display:inline-block;padding:10px 18px;background:#111;color:#fff;text-decoration:none;border-radius:6px">Sign in</a></p>
<p style="color:#666;font-size:13px">If you did not ask to sign in, you can ignore this email.</p>
</body></html>`,
			templ.EscapeString(product),
			templ.EscapeString(link),
			templ.EscapeString(humanDuration(ttl)),
		)
		return err
	})
}

func signInLinkText(product, link string, ttl time.Duration) string {
	return fmt.Sprintf("Sign in to %s\n\nOpen this link to finish signing in. It works once and expires in %s.\n\n%s\n\nIf you did not ask to sign in, you can ignore this email.\n",
		product, humanDuration(ttl), link)
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute:
		if d < 2*time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
