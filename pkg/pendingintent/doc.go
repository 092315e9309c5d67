// Package pendingintent remembers, per browser, the e-mail address a
// sign-in link was last sent to, so the link can be completed without
// asking for the address again.
//
// The cookie store is the default: the address lives in an encrypted
// emailForSignIn cookie and never leaves the browser that requested the
// link. The Redis store keeps it server side under the browser ID.
// Opening a link on another device finds nothing and the sign-in page asks
// for the address.
package pendingintent
