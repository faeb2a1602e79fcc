package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stry/model"
	"stry/scraper"
	"stry/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chapterPage = `<html><body>
<div id="profile_top">
<b class="xcontrast_txt">Fellow Traveler</b>
<span class="xcontrast_txt">By:</span> <a class="xcontrast_txt" href="/u/1/quietwraith">quietwraith</a> <a class="xcontrast_txt" title="Send Private Message" href="/pm2/post.php?uid=1">pm</a>
<div class="xcontrast_txt">It is not the fanatic who keeps a regime going.</div>
</div>
<select id="chap_select"><option value="%[1]d" selected>%[1]d. Part %[1]d</option></select>
<div class="storytext xcontrast_txt" id="storytext"><p>Chapter “%[1]d” text.</p></div>
</body></html>`

type site struct {
	mu       sync.Mutex
	requests []string
	times    []time.Time
	headers  http.Header
}

func (s *site) handler(t *testing.T, failing map[string]int, missing map[string]bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/s/{id}/{chapter}/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.Path)
		s.times = append(s.times, time.Now())
		s.headers = r.Header.Clone()
		s.mu.Unlock()

		id := r.PathValue("id")
		if code, ok := failing[id]; ok {
			w.WriteHeader(code)
			fmt.Fprint(w, "story gone")
			return
		}
		if missing[id] {
			fmt.Fprint(w, "<html><body>cloudflare</body></html>")
			return
		}
		var n int
		_, err := fmt.Sscan(r.PathValue("chapter"), &n)
		require.NoError(t, err)
		fmt.Fprintf(w, chapterPage, n)
	})
	return mux
}

func newImporter(t *testing.T, url string) (*Importer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "import")
	fetcher := scraper.NewHTTPFetcher(utils.NewRestyClient(0), Headers)
	return New(fetcher, Options{Dir: dir, BaseURL: url}), dir
}

func readImport(t *testing.T, dir, id string) model.ImportStory {
	t.Helper()
	data, err := os.ReadFile(StoryFile(dir, id))
	require.NoError(t, err)
	var story model.ImportStory
	require.NoError(t, json.Unmarshal(data, &story))
	return story
}

func TestRun(t *testing.T) {
	s := &site{}
	server := httptest.NewServer(s.handler(t, nil, nil))
	defer server.Close()

	imp, dir := newImporter(t, server.URL+"/")
	entries := []model.ImportEntry{{
		Id:       "123",
		Site:     model.SiteFanFiction,
		Rating:   model.RatingTeen,
		State:    model.StateCompleted,
		Created:  model.ImportDate{Year: 2019, Month: 9, Day: 27},
		Chapters: 2,
		Origins:  []string{"Hunger Games"},
	}}
	require.NoError(t, imp.Run(context.Background(), entries))

	assert.Equal(t, []string{"/s/123/1/", "/s/123/2/"}, s.requests)
	assert.Equal(t, "cookies=yes", s.headers.Get("Cookie"))
	assert.Contains(t, s.headers.Get("User-Agent"), "Edge/18.17763")

	story := readImport(t, dir, "123")
	assert.Equal(t, "Fellow Traveler", story.Name)
	assert.Equal(t, []string{"quietwraith"}, story.Authors)
	assert.Equal(t, "It is not the fanatic who keeps a regime going.", story.Summary)
	assert.Equal(t, model.RatingTeen, story.Rating)
	assert.Equal(t, []string{"Hunger Games"}, story.Origins)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, model.ImportChapter{Name: "Part 1", Place: 1, Raw: `Chapter "1" text.`}, story.Chapters[0])
	assert.Equal(t, 2, story.Chapters[1].Place)

	data, err := os.ReadFile(StoryFile(dir, "123"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"id\": \"123\"")
}

func TestRunAbortsFailingStories(t *testing.T) {
	s := &site{}
	server := httptest.NewServer(s.handler(t,
		map[string]int{"1": http.StatusNotFound},
		map[string]bool{"2": true},
	))
	defer server.Close()

	imp, dir := newImporter(t, server.URL)
	entries := []model.ImportEntry{
		{Id: "1", Site: model.SiteFanFiction, Chapters: 3},
		{Id: "2", Site: model.SiteFanFiction, Chapters: 3},
		{Id: "3", Site: model.SiteAO3, Chapters: 1},
		{Id: "4", Site: model.SiteFanFiction, Chapters: 1},
	}
	require.NoError(t, imp.Run(context.Background(), entries))

	assert.Equal(t, []string{"/s/1/1/", "/s/2/1/", "/s/4/1/"}, s.requests)

	assert.NoFileExists(t, StoryFile(dir, "1"))
	assert.NoFileExists(t, StoryFile(dir, "2"))
	assert.NoFileExists(t, StoryFile(dir, "3"))
	assert.FileExists(t, StoryFile(dir, "4"))

	body, err := os.ReadFile(ErrorFile(dir, "2"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "cloudflare")
}

func TestRunWaitsAfterFailedStories(t *testing.T) {
	s := &site{}
	server := httptest.NewServer(s.handler(t, map[string]int{"1": http.StatusNotFound}, nil))
	defer server.Close()

	delay := 150 * time.Millisecond
	fetcher := scraper.NewHTTPFetcher(utils.NewRestyClient(0), Headers)
	imp := New(fetcher, Options{Dir: t.TempDir(), BaseURL: server.URL, MinDelay: delay, MaxDelay: delay})

	entries := []model.ImportEntry{
		{Id: "1", Site: model.SiteFanFiction, Chapters: 1},
		{Id: "3", Site: model.SiteAO3, Chapters: 1},
		{Id: "4", Site: model.SiteFanFiction, Chapters: 1},
	}
	require.NoError(t, imp.Run(context.Background(), entries))

	require.Equal(t, []string{"/s/1/1/", "/s/4/1/"}, s.requests)
	assert.GreaterOrEqual(t, s.times[1].Sub(s.times[0]), 2*delay)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := &site{}
	server := httptest.NewServer(s.handler(t, nil, nil))
	defer server.Close()

	dir := t.TempDir()
	fetcher := scraper.NewHTTPFetcher(utils.NewRestyClient(0), Headers)
	imp := New(fetcher, Options{Dir: dir, BaseURL: server.URL, MinDelay: time.Hour, MaxDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	err := imp.Run(ctx, []model.ImportEntry{{Id: "1", Site: model.SiteFanFiction, Chapters: 2}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, StoryFile(dir, "1"))
}

func TestReadList(t *testing.T) {
	entries, err := ReadList(filepath.Join("testdata", "stories.yaml"))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, "123", first.Id)
	assert.Equal(t, model.SiteFanFiction, first.Site)
	assert.Equal(t, model.RatingTeen, first.Rating)
	assert.Equal(t, model.StateCompleted, first.State)
	assert.Equal(t, model.ImportDate{Year: 2019, Month: 10, Day: 4}, first.Updated)
	assert.Equal(t, 2, first.Chapters)
	assert.Equal(t, []model.ScrapedTag{
		{Name: "Drama", Type: model.TagGeneral},
		{Name: "Katniss E.", Type: model.TagCharacter},
	}, first.Tags)

	assert.Equal(t, model.SiteFanFiction, entries[1].Site)
	assert.Equal(t, model.SiteAO3, entries[2].Site)

	_, err = ReadList(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

type saver struct {
	stories []*model.ScrapedStory
}

func (s *saver) SaveStory(_ context.Context, story *model.ScrapedStory) (string, error) {
	s.stories = append(s.stories, story)
	return fmt.Sprintf("id%d", len(s.stories)), nil
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "story-legacy.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "story-42.json"), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "err-story-7.json"), []byte("<html>"), 0644))

	s := &saver{}
	ids, err := Load(context.Background(), dir, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"id1"}, ids)
	require.Len(t, s.stories, 1)

	story := s.stories[0]
	assert.Equal(t, model.SiteFanFiction, story.Site)
	assert.Equal(t, "42", story.SiteId)
	assert.Equal(t, "Legacy Story", story.Name)
	assert.Equal(t, model.RatingMature, story.Rating)
	assert.Equal(t, model.StateInProgress, story.State)
	assert.Equal(t, time.Date(2018, 3, 4, 0, 0, 0, 0, time.UTC), story.Updated)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, "One", story.Chapters[0].Name)
	assert.Equal(t, `Second "part" here.`, story.Chapters[1].Main)
	assert.Equal(t, 5, story.Words)
}
