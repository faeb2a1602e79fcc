package template

import (
	"context"
	"strings"
	"testing"
	"time"

	"stry/model"
	"stry/pagination"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func story() model.Story {
	updated := time.Date(2019, time.October, 4, 0, 0, 0, 0, time.UTC)
	return model.Story{
		Id:       "abc234",
		Name:     "Fellow <Traveler>",
		Summary:  "It is not the fanatic.",
		Language: model.LanguageEnglish,
		Square:   model.Square{Rating: model.RatingTeen, Warnings: model.WarningUsing, State: model.StateCompleted},
		Chapters: 12,
		Words:    123456,
		Authors:  []model.Author{{Id: "a1", Name: "one"}, {Id: "a2", Name: "two"}},
		Origins:  []model.Origin{{Id: "o1", Name: "Hunger Games"}},
		Tags: []model.Tag{
			{Id: "t1", Name: "Major Character Death", Type: model.TagWarning},
			{Id: "t2", Name: "Drama", Type: model.TagGeneral},
		},
		Updated: updated,
	}
}

func TestReadable(t *testing.T) {
	assert.Equal(t, "0", Readable(0))
	assert.Equal(t, "123,456", Readable(123456))
}

func TestStoryCard(t *testing.T) {
	out := render(t, StoryCard(story()))
	assert.Contains(t, out, `<a href="/story/abc234/1">Fellow &lt;Traveler&gt;</a> by`)
	assert.Contains(t, out, `<a href="/author/a1/1">one</a>, <a href="/author/a2/1">two</a>`)
	assert.Contains(t, out, `<a href="/origin/o1/1">Hunger Games</a>`)
	assert.Contains(t, out, `<a class="warning" href="/tag/t1/1">Major Character Death</a>`)
	assert.Contains(t, out, `<div class="teen"></div><div class="using"></div><div class="bottom completed"></div>`)
	assert.Contains(t, out, "Oct 4, 2019")
	assert.Contains(t, out, "english | 123,456 words | 12 chapters")
}

func TestPagination(t *testing.T) {
	out := render(t, Pagination(pagination.Paginate(1, 5), func(n int) string {
		return "/home/" + Readable(n)
	}))
	assert.Contains(t, out, `<a class="disabled" href="/home/1">prev</a>`)
	assert.Contains(t, out, `<a class="disabled" href="/home/1">1</a>`)
	assert.Contains(t, out, `<a href="/home/2">2</a>`)
	assert.Contains(t, out, `<span class="disabled">...</span>`)
	assert.Contains(t, out, `<a href="/home/5">5</a>`)
	assert.Contains(t, out, `<a href="/home/2">next</a>`)
	assert.NotContains(t, out, `href="/home/3"`)
}

func TestPaginationSanitizesHref(t *testing.T) {
	out := render(t, Pagination(pagination.Paginate(1, 2), func(n int) string {
		return "javascript:alert(1)"
	}))
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `href="about:invalid#TemplFailedSanitizationURL"`)
}

func TestEntityHrefEscapesId(t *testing.T) {
	assert.Equal(t, templ.SafeURL("/tag/a%2Fb/2"), EntityHref(model.KindTag, "a/b", 2))
	assert.Equal(t, templ.SafeURL("/story/x%3Fy/1"), StoryHref("x?y", 1))
}

func TestStoryList(t *testing.T) {
	out := render(t, StoryList("Latest", &model.StoryPage{Count: 0, Pages: 0}, 1, func(n int) string { return "/" }))
	assert.Contains(t, out, "<h2>Latest</h2>")
	assert.Contains(t, out, "No stories found.")
}

func TestChapter(t *testing.T) {
	page := &model.ChapterPage{Chapter: model.Chapter{Name: "Before"}, Story: story()}

	out := render(t, Chapter(page, 1, "<p>body</p>"))
	assert.Contains(t, out, "Chapter 1: Before")
	assert.Contains(t, out, `<div class="chapter"><p>body</p></div>`)
	assert.Contains(t, out, `<a class="disabled" href="/story/abc234/1">prev</a>`)
	assert.Contains(t, out, `<a href="/story/abc234/2">next</a>`)
	assert.Contains(t, out, "1 / 12")

	out = render(t, Chapter(page, 12, ""))
	assert.Contains(t, out, `<a href="/story/abc234/11">prev</a>`)
	assert.Contains(t, out, `<a class="disabled" href="/story/abc234/12">next</a>`)
}

func TestSearch(t *testing.T) {
	out := render(t, Search("drama, -angst", nil, 1))
	assert.Contains(t, out, `value="drama, -angst"`)
	assert.NotContains(t, out, "results")

	out = render(t, Search("drama", &model.StoryPage{Count: 11, Pages: 2, Stories: []model.Story{story()}}, 1))
	assert.Contains(t, out, "<h2>11 results</h2>")
	assert.Contains(t, out, `href="/search?search=drama&amp;page=2"`)
}

func TestEntityList(t *testing.T) {
	out := render(t, EntityList(&model.EntityPage{
		List:     model.ListCharacters,
		Count:    1,
		Pages:    1,
		Entities: []model.Entity{{Id: "t9", Name: "Katniss", Type: model.TagCharacter}},
	}, 1))
	assert.Contains(t, out, "<h2>characters</h2>")
	assert.Contains(t, out, `<a href="/tag/t9/1">Katniss</a>`)
	assert.Contains(t, out, `href="/list/character/1"`)
}

func TestLayout(t *testing.T) {
	out := render(t, Layout(Page{Title: "Home", Version: "0.1.0-abc", Search: `"x"`}, Error(404, "story abc not found")))
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Home - stry</title>")
	assert.Contains(t, out, `value="&#34;x&#34;"`)
	assert.Contains(t, out, `<a href="/list/pairing/1">pairings</a>`)
	assert.Contains(t, out, "404 Not Found")
	assert.Contains(t, out, "story abc not found")
	assert.Contains(t, out, ">0.1.0-abc</a>")
}

func TestContentOPF(t *testing.T) {
	out := render(t, ContentOPF("book-id",
		&model.Package{Titles: []model.DCText{{Value: "A & B"}}},
		&model.Manifest{Items: []model.ManifestItem{{ID: "c1", Link: "c1.xhtml", Media: "application/xhtml+xml"}}},
		&model.Spine{Toc: "ncx", Items: []model.SpineItem{{IDref: "c1"}}},
	))
	assert.Contains(t, out, `unique-identifier="book-id"`)
	assert.Contains(t, out, `<dc:title>A &amp; B</dc:title>`)
	assert.Contains(t, out, `<item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"></item>`)
	assert.Contains(t, out, `<spine toc="ncx"><itemref idref="c1"></itemref></spine>`)
}

func TestIndex(t *testing.T) {
	out := render(t, Index(Bundle{Version: "0.1.0-abc", Package: "0.1.0", Debug: true, Style: "body{}", Script: "run()"}))
	assert.Contains(t, out, "<style>body{}</style>")
	assert.Contains(t, out, `var stryVersion = {"debug":true,"git":"0.1.0-abc","package":"0.1.0"};`)
	assert.Contains(t, out, "<script>run()</script>")
}

func TestContentXHTML(t *testing.T) {
	out := render(t, ContentXHTML("A & B", templ.Raw("<p>body</p>")))
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`+"\n<!DOCTYPE html>\n<html"))
	assert.Contains(t, out, "<title>A &amp; B</title>")
	assert.Contains(t, out, `<link href="../../style.css" rel="stylesheet" type="text/css"/>`)
	assert.Contains(t, out, "<h1>A &amp; B</h1><p>body</p></div>")
}

func TestTitlePage(t *testing.T) {
	s := story()
	out := render(t, TitlePage(&s))
	assert.Contains(t, out, `<p class="byline">by one, two</p>`)
	assert.Contains(t, out, `<p class="meta">teen, completed, 123,456 words</p>`)
	assert.Contains(t, out, `<p class="meta">Major Character Death, Drama</p>`)
	assert.Contains(t, out, `<div class="summary"><p>It is not the fanatic.</p>`)

	s.Tags = nil
	out = render(t, TitlePage(&s))
	assert.Equal(t, 1, strings.Count(out, `class="meta"`))
}

func TestContentsPage(t *testing.T) {
	out := render(t, ContentsPage([]model.Chapter{{Name: "One"}, {Name: "Two & more"}}))
	assert.Contains(t, out, `<li><a href="chapter-001.xhtml">One</a></li><li><a href="chapter-002.xhtml">Two &amp; more</a></li>`)
	assert.Equal(t, "chapter-010.xhtml", ChapterFile(9))
}
