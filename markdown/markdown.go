// Package markdown renders chapter markdown to HTML. Raw HTML in the
// markdown is dropped and only safe link schemes become anchors.
package markdown

import "github.com/russross/blackfriday/v2"

const extensions = blackfriday.CommonExtensions | blackfriday.HardLineBreak

func render(raw string, flags blackfriday.HTMLFlags) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: flags | blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks,
	})
	return string(blackfriday.Run([]byte(raw),
		blackfriday.WithExtensions(extensions),
		blackfriday.WithRenderer(renderer),
	))
}

// HTML renders a chapter body for the reader.
func HTML(raw string) string {
	return render(raw, blackfriday.CommonHTMLFlags)
}

// XHTML renders a chapter body for an EPUB document.
func XHTML(raw string) string {
	return render(raw, blackfriday.CommonHTMLFlags|blackfriday.UseXHTML)
}
