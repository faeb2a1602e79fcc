// Package template holds the HTML pages of the reader and the files of an
// EPUB export as templ components.
package template

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"stry/model"
	"stry/pagination"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// Readable formats a count with thousands separators.
func Readable(n int) string {
	return humanize.Comma(int64(n))
}

func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// StoryHref links chapter n of a story.
func StoryHref(id string, n int) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/story/%s/%d", url.PathEscape(id), n))
}

// EntityHref links page n of the stories filtered by an entity.
func EntityHref(kind model.Kind, id string, n int) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/%s/%s/%d", kind, url.PathEscape(id), n))
}

// SearchHref links page n of a search.
func SearchHref(search string, n int) string {
	return fmt.Sprintf("/search?search=%s&page=%d", url.QueryEscape(search), n)
}

func pageTitle(title string) string {
	if title == "" {
		return "stry"
	}
	return title + " - stry"
}

func squareTitle(square model.Square) string {
	return fmt.Sprintf("%s, warnings: %s, %s", square.Rating, square.Warnings, square.State)
}

func storyFoot(story model.Story) string {
	return fmt.Sprintf("%s | %s words | %s chapters", story.Language, Readable(story.Words), Readable(story.Chapters))
}

func pagerLabel(pager pagination.Pager) string {
	switch pager.Kind {
	case pagination.KindPrev:
		return "prev"
	case pagination.KindNext:
		return "next"
	}
	return strconv.Itoa(pager.Page)
}
