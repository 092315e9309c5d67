// Package identity is the sign-in backend: passwordless e-mail links,
// OAuth provider sign-in (Google, GitHub) and per-browser sessions.
//
// A Service is shared by the whole process. Each browser talks to it
// through a Client, which implements Adapter and is bound to the
// browser's ID:
//
//	svc, _ := identity.NewService(cfg, keys.LinkToken, creds, sender,
//		identity.WithSessionStore(identity.NewRedisSessionStore(rdb, prefix)),
//		identity.WithProvider(identity.NewGoogleAdapter(googleCfg)),
//	)
//	client := svc.Client(ctx, browserID)
//	defer client.Close()
//
// Sign-in links are the continue URL with mode=signIn and oobCode=<code>
// appended. The code is an HMAC signed payload holding the address, a
// single-use ID and the expiry. Sessions are HS256 JWTs stored per browser;
// every start or end of a session is published to the browser's
// subscribers. Publishing is process-local: stores may be shared through
// Redis, but subscribers only hear about changes made by the same process.
//
// Accounts are registered on first completed sign-in. Provider accounts
// are matched by provider user ID, then linked to an existing account by
// e-mail only when the provider reports the address as verified.
package identity
