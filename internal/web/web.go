// Package web embeds the single-page frontend served next to the API.
package web

import (
	"embed"
	"io/fs"
)

//go:embed dist
var dist embed.FS

// Dist returns the frontend rooted at its index.html.
func Dist() (fs.FS, error) {
	return fs.Sub(dist, "dist")
}
