// Package assets holds the stylesheet and script of the reader.
package assets

import "embed"

//go:embed style.css app.js
var FS embed.FS

const (
	Style  = "style.css"
	Script = "app.js"
)
