// Package email sends transactional mail through Postmark
// (github.com/mrz1836/postmark) or, in development, writes it to disk.
// Bodies are rendered from templ components with Render.
package email
