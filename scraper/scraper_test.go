package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stry/model"
	"stry/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func document(t *testing.T, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fixture(t, name)))
	require.NoError(t, err)
	return doc
}

func TestSiteFromURL(t *testing.T) {
	tests := []struct {
		url  string
		site model.Site
		id   string
	}{
		{"https://www.fanfiction.net/s/12382425/1/Some-Story", model.SiteFanFiction, "12382425"},
		{"https://m.fanfiction.net/s/123/", model.SiteFanFiction, "123"},
		{"https://archiveofourown.org/works/55", model.SiteAO3, "55"},
		{"https://archiveofourown.org/works/55/chapters/9", model.SiteAO3, "55"},
	}
	for _, tt := range tests {
		site, id, err := SiteFromURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.site, site, tt.url)
		assert.Equal(t, tt.id, id, tt.url)
	}

	_, _, err := SiteFromURL("https://example.com/s/1/1")
	assert.ErrorIs(t, err, ErrUnsupportedSite)

	_, _, err = SiteFromURL("https://www.fanfiction.net/s")
	assert.Error(t, err)
}

func TestFanFictionDetails(t *testing.T) {
	story, chapters, err := FanFictionDetails(document(t, "fanfiction-1.html"))
	require.NoError(t, err)

	assert.Equal(t, 2, chapters)
	assert.Equal(t, "Fellow Traveler", story.Name)
	assert.Equal(t, "It is not the fanatic who keeps a regime going, but the fellow traveler.", story.Summary)
	assert.Equal(t, []string{"quietwraith"}, story.Authors)
	assert.Equal(t, []string{"Hunger Games"}, story.Origins)
	assert.Equal(t, model.RatingTeen, story.Rating)
	assert.Equal(t, model.StateCompleted, story.State)
	assert.Equal(t, model.LanguageEnglish, story.Language)
	assert.Equal(t, time.Date(2019, time.September, 27, 22, 30, 35, 0, time.UTC), story.Created)
	assert.Equal(t, time.Date(2019, time.October, 4, 11, 44, 18, 0, time.UTC), story.Updated)
}

func TestFanFictionCrossover(t *testing.T) {
	doc := document(t, "fanfiction-crossover.html")

	story, chapters, err := FanFictionDetails(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, chapters)
	assert.Equal(t, []string{"Harry Potter", "Naruto"}, story.Origins)
	assert.Equal(t, []string{"writer"}, story.Authors)
	assert.Equal(t, model.RatingExplicit, story.Rating)
	assert.Equal(t, model.StateInProgress, story.State)
	assert.Equal(t, story.Created, story.Updated)

	chapter, err := FanFictionChapter(doc)
	require.NoError(t, err)
	assert.Equal(t, "One Shot", chapter.Name)
	assert.Equal(t, "Only chapter text.", chapter.Main)
}

func TestFanFictionChapter(t *testing.T) {
	chapter, err := FanFictionChapter(document(t, "fanfiction-1.html"))
	require.NoError(t, err)

	assert.Equal(t, "Before", chapter.Name)
	assert.Equal(t, "The \"first\" chapter.\n\nIt has *two* paragraphs.", chapter.Main)
	assert.Equal(t, 7, chapter.Words)
}

func TestFanFictionChapterMissingText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte("<html><body><p>Story not found.</p></body></html>")))
	require.NoError(t, err)

	_, err = FanFictionChapter(doc)
	assert.ErrorIs(t, err, ErrMissingContent)
}

func TestAO3Details(t *testing.T) {
	story, chapters, err := AO3Details(document(t, "ao3-work.html"))
	require.NoError(t, err)

	assert.Equal(t, 2, chapters)
	assert.Equal(t, "A Work", story.Name)
	assert.Equal(t, "Short *summary*.", story.Summary)
	assert.Equal(t, []string{"one", "two"}, story.Authors)
	assert.Equal(t, []string{"Harry Potter - J. K. Rowling"}, story.Origins)
	assert.Equal(t, model.RatingTeen, story.Rating)
	assert.Equal(t, model.StateInProgress, story.State)
	assert.Equal(t, time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC), story.Created)
	assert.Equal(t, time.Date(2020, time.February, 3, 0, 0, 0, 0, time.UTC), story.Updated)
	assert.Equal(t, []model.ScrapedTag{
		{Name: "Harry Potter/Draco Malfoy", Type: model.TagPairing},
		{Name: "Harry Potter", Type: model.TagCharacter},
		{Name: "Draco Malfoy", Type: model.TagCharacter},
		{Name: "Fluff", Type: model.TagGeneral},
	}, story.Tags)
}

func TestAO3Chapter(t *testing.T) {
	doc := document(t, "ao3-work.html")

	first, err := AO3Chapter(doc, 1)
	require.NoError(t, err)
	assert.Equal(t, "Beginnings", first.Name)
	assert.Equal(t, `One "two" three.`, first.Main)
	assert.Equal(t, 3, first.Words)

	second, err := AO3Chapter(doc, 2)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 2", second.Name)
	assert.Equal(t, "Four five.\n\nSix.", second.Main)
}

func newTestScraper(t *testing.T, handler http.Handler) *Scraper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fetcher := NewHTTPFetcher(utils.NewRestyClient(0), Headers)
	return New(fetcher,
		WithDelay(0, 0),
		WithBaseURL(model.SiteFanFiction, server.URL),
		WithBaseURL(model.SiteAO3, server.URL),
	)
}

func TestScrapeFanFiction(t *testing.T) {
	var mu sync.Mutex
	requests := map[string]int{}
	mux := http.NewServeMux()
	mux.HandleFunc("/s/123/{chapter}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests[r.URL.Path]++
		mu.Unlock()
		assert.Equal(t, "cookies=yes; view_adult=true", r.Header.Get("Cookie"))
		switch r.PathValue("chapter") {
		case "1":
			w.Write(fixture(t, "fanfiction-1.html"))
		case "2":
			w.Write(fixture(t, "fanfiction-2.html"))
		default:
			http.NotFound(w, r)
		}
	})

	s := newTestScraper(t, mux)
	story, err := s.Scrape(context.Background(), "https://www.fanfiction.net/s/123/1/Fellow-Traveler")
	require.NoError(t, err)

	assert.Equal(t, model.SiteFanFiction, story.Site)
	assert.Equal(t, "123", story.SiteId)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, "Before", story.Chapters[0].Name)
	assert.Equal(t, "After", story.Chapters[1].Name)
	assert.Equal(t, "Second chapter here.", story.Chapters[1].Main)
	assert.Equal(t, 10, story.Words)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"/s/123/1": 1, "/s/123/2": 1}, requests)
}

func TestScrapeStatusError(t *testing.T) {
	s := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))

	_, err := s.Scrape(context.Background(), "https://www.fanfiction.net/s/404/1")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.Code)
}

func TestScrapeAO3(t *testing.T) {
	s := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works/55" || r.URL.Query().Get("view_full_work") != "true" {
			http.NotFound(w, r)
			return
		}
		w.Write(fixture(t, "ao3-work.html"))
	}))

	story, err := s.Scrape(context.Background(), "https://archiveofourown.org/works/55")
	require.NoError(t, err)

	assert.Equal(t, "55", story.SiteId)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, 6, story.Words)
}

func TestScrapeUnsupported(t *testing.T) {
	s := New(NewHTTPFetcher(utils.NewRestyClient(0), nil))
	_, err := s.Scrape(context.Background(), "https://example.com/s/1")
	assert.ErrorIs(t, err, ErrUnsupportedSite)
}
