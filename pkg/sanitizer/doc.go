// Package sanitizer normalizes user and provider supplied strings before
// they are stored or rendered. HTML stripping uses
// github.com/microcosm-cc/bluemonday.
package sanitizer
