package template

import (
	"fmt"
	"strings"

	"stry/model"

	"github.com/a-h/templ"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	// XHTML documents keep the upper case doctype and the closed link tag
	// an XML parser expects.
	xhtmlHeader    = xmlHeader + "<!DOCTYPE html>\n"
	stylesheetLink = `<link href="../../style.css" rel="stylesheet" type="text/css"/>`
)

type marshaler interface {
	Marshal() (string, error)
}

// rawXML renders an EPUB fragment marshalled by encoding/xml.
func rawXML(m marshaler) templ.Component {
	s, err := m.Marshal()
	return templ.Raw(s, err)
}

// ChapterFile is the name of chapter i (zero based) inside OEBPS/Text.
func ChapterFile(i int) string {
	return fmt.Sprintf("chapter-%03d.xhtml", i+1)
}

func authorNames(authors []model.Author) string {
	names := make([]string, 0, len(authors))
	for _, author := range authors {
		names = append(names, author.Name)
	}
	return strings.Join(names, ", ")
}

func tagNames(tags []model.Tag) string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return strings.Join(names, ", ")
}

func storyMeta(story *model.Story) string {
	return fmt.Sprintf("%s, %s, %s words", story.Square.Rating, story.Square.State, Readable(story.Words))
}
