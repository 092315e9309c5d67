// Package clientip resolves the address of the client behind the proxies
// in front of the server.
//
// Only the headers listed in Config.TrustedHeaders are read, in order;
// the connection address is the fallback. Deployments without a proxy
// should leave the list empty so clients cannot pick their own address.
//
//	ips := clientip.New(cfg)
//	r.Use(ips.Middleware)
//	ip := clientip.FromContext(r.Context())
package clientip
