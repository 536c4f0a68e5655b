// Package templates holds the templ components of the stats page. Edit the
// .templ sources and regenerate the _templ.go files with `templ generate`.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate
