package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stry/model"
	"stry/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	story    model.Story
	chapters []model.Chapter
	pages    []int
	query    search.Query
	panics   bool
}

func newFakeSource() *fakeSource {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	return &fakeSource{
		story: model.Story{
			Id:       "abc234",
			Name:     "Fellow Traveler",
			Summary:  "A summary.",
			Language: model.LanguageEnglish,
			Square:   model.Square{Rating: model.RatingTeen, Warnings: model.WarningNone, State: model.StateCompleted},
			Chapters: 2,
			Words:    5,
			Authors:  []model.Author{{Id: "auth22", Name: "quietwraith"}},
			Origins:  []model.Origin{},
			Tags:     []model.Tag{{Id: "tag222", Name: "Drama", Type: model.TagGeneral}},
			Created:  now,
			Updated:  now,
		},
		chapters: []model.Chapter{
			{Id: "ch1", Name: "Before", Raw: "Hello **world**", Words: 2, Updated: now},
			{Id: "ch2", Name: "After", Raw: "Bye", Words: 1, Updated: now},
		},
	}
}

func (f *fakeSource) storyPage(page int) *model.StoryPage {
	f.pages = append(f.pages, page)
	return &model.StoryPage{Count: 1, Pages: 1, Stories: []model.Story{f.story}}
}

func (f *fakeSource) Stories(_ context.Context, page int) (*model.StoryPage, error) {
	if f.panics {
		panic("boom")
	}
	return f.storyPage(page), nil
}

func (f *fakeSource) StoriesOf(_ context.Context, kind model.Kind, id string, page int) (*model.StoryPage, error) {
	if kind != model.KindAuthor || id != "auth22" {
		return nil, fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return f.storyPage(page), nil
}

func (f *fakeSource) Story(_ context.Context, id string) (*model.Story, error) {
	if id != f.story.Id {
		return nil, fmt.Errorf("story %s: %w", id, model.ErrNotFound)
	}
	return &f.story, nil
}

func (f *fakeSource) Chapter(ctx context.Context, storyId string, n int) (*model.ChapterPage, error) {
	story, err := f.Story(ctx, storyId)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(f.chapters) {
		return nil, fmt.Errorf("chapter %d: %w", n, model.ErrChapterOutOfRange)
	}
	return &model.ChapterPage{Chapter: f.chapters[n-1], Story: *story}, nil
}

func (f *fakeSource) Entity(_ context.Context, kind model.Kind, id string) (*model.Entity, error) {
	if kind != model.KindAuthor || id != "auth22" {
		return nil, fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return &model.Entity{Id: id, Name: "quietwraith"}, nil
}

func (f *fakeSource) Entities(_ context.Context, list model.List, page int) (*model.EntityPage, error) {
	f.pages = append(f.pages, page)
	return &model.EntityPage{
		List:     list,
		Count:    1,
		Pages:    1,
		Entities: []model.Entity{{Id: "tag222", Name: "Drama", Type: model.TagGeneral}},
	}, nil
}

func (f *fakeSource) Search(_ context.Context, q search.Query, page int) (*model.StoryPage, error) {
	f.query = q
	return f.storyPage(page), nil
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) model.Response[T] {
	t.Helper()
	var resp model.Response[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAPIStories(t *testing.T) {
	source := newFakeSource()
	s := New(source, Options{})

	rec := do(t, s, http.MethodGet, "/api/stories/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	resp := decode[model.StoryPage](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 200, resp.Code)
	require.Len(t, resp.Data.Stories, 1)
	assert.Equal(t, "Fellow Traveler", resp.Data.Stories[0].Name)

	do(t, s, http.MethodGet, "/api/stories/abc", "")
	do(t, s, http.MethodGet, "/api/stories/0", "")
	assert.Equal(t, []int{2, 1, 1}, source.pages)
}

func TestAPIStoriesOf(t *testing.T) {
	s := New(newFakeSource(), Options{})

	rec := do(t, s, http.MethodGet, "/api/author/auth22/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/origin/nope/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[struct{}](t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 404, resp.Code)
	assert.NotEmpty(t, resp.Messages)

	rec = do(t, s, http.MethodGet, "/api/author/auth22", "")
	assert.Equal(t, "quietwraith", decode[model.Entity](t, rec).Data.Name)
}

func TestAPIChapter(t *testing.T) {
	s := New(newFakeSource(), Options{})

	rec := do(t, s, http.MethodGet, "/api/story/abc234/chapter/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.ChapterPage](t, rec)
	assert.Equal(t, "After", resp.Data.Chapter.Name)
	assert.Equal(t, "abc234", resp.Data.Story.Id)

	rec = do(t, s, http.MethodGet, "/api/story/abc234/chapter/3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/story/zzzzzz/chapter/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/story/abc234", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIEntities(t *testing.T) {
	s := New(newFakeSource(), Options{})

	rec := do(t, s, http.MethodGet, "/api/characters/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw.Data, "tags")
	assert.Contains(t, raw.Data, "count")

	rec = do(t, s, http.MethodGet, "/api/authors/1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw.Data, "authors")
}

func TestAPISearch(t *testing.T) {
	source := newFakeSource()
	s := New(source, Options{})

	rec := do(t, s, http.MethodPost, "/api/search", `{"page": 2, "search": "Drama, -Angst, rating:t"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"drama"}, source.query.Include)
	assert.Equal(t, []string{"angst"}, source.query.Exclude)
	assert.Equal(t, []model.Rating{model.RatingTeen}, source.query.Ratings)
	assert.Equal(t, []int{2}, source.pages)

	rec = do(t, s, http.MethodPost, "/api/search", `{"search": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/search", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := fmt.Sprintf(`{"search": "%s"}`, strings.Repeat("a", search.MaxLength))
	rec = do(t, s, http.MethodPost, "/api/search", big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// exactly MaxLength bytes is still refused
	exact := `{"search": "` + strings.Repeat("a", search.MaxLength-len(`{"search": ""}`)) + `"}`
	require.Len(t, exact, search.MaxLength)
	rec = do(t, s, http.MethodPost, "/api/search", exact)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPINotFound(t *testing.T) {
	s := New(newFakeSource(), Options{})

	rec := do(t, s, http.MethodGet, "/api/nothing/here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decode[struct{}](t, rec).Status)

	rec = do(t, s, http.MethodOptions, "/api/search", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPages(t *testing.T) {
	s := New(newFakeSource(), Options{Version: "0.1.0-test"})

	tests := []struct {
		target string
		code   int
		want   string
	}{
		{"/", http.StatusOK, "Fellow Traveler"},
		{"/home/3", http.StatusOK, "0.1.0-test"},
		{"/story/abc234/1", http.StatusOK, "<strong>world</strong>"},
		{"/story/abc234/9", http.StatusBadRequest, "400 Bad Request"},
		{"/story/zzzzzz/1", http.StatusNotFound, "404 Not Found"},
		{"/author/auth22/1", http.StatusOK, "<h2>quietwraith</h2>"},
		{"/tag/none/1", http.StatusNotFound, "404 Not Found"},
		{"/search", http.StatusOK, `name="search"`},
		{"/search?search=drama", http.StatusOK, "1 results"},
		{"/search?search=rating:x", http.StatusBadRequest, "400 Bad Request"},
		{"/list/character/1", http.StatusOK, "<h2>characters</h2>"},
		{"/list/bogus/1", http.StatusNotFound, "404 Not Found"},
		{"/no/such/page", http.StatusNotFound, "404 Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestAssets(t *testing.T) {
	s := New(newFakeSource(), Options{})
	rec := do(t, s, http.MethodGet, "/assets/style.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestRateLimit(t *testing.T) {
	s := New(newFakeSource(), Options{Rate: 0.001, Burst: 1})
	defer s.Close()

	rec := do(t, s, http.MethodGet, "/api/stories/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stories/1", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "error", decode[struct{}](t, rec).Status)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/1", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stories/1", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitTrustedProxy(t *testing.T) {
	s := New(newFakeSource(), Options{Rate: 0.001, Burst: 1, TrustProxy: true})
	defer s.Close()

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/stories/1", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.9, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.9"))
	assert.Equal(t, http.StatusOK, send("10.0.0.10"))
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:5000"
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")

	assert.Equal(t, "2001:db8::1", clientKey(req, false))
	assert.Equal(t, "10.0.0.9", clientKey(req, true))

	req.Header.Set("X-Forwarded-For", " , 10.0.0.1")
	assert.Equal(t, "2001:db8::1", clientKey(req, true))

	req.Header.Del("X-Forwarded-For")
	req.RemoteAddr = "192.0.2.1"
	assert.Equal(t, "192.0.2.1", clientKey(req, true))
}

func TestRecovery(t *testing.T) {
	source := newFakeSource()
	source.panics = true
	s := New(source, Options{})

	rec := do(t, s, http.MethodGet, "/api/stories/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChapterCache(t *testing.T) {
	cache := newChapterCache(2, time.Minute)
	chapter := model.Chapter{Id: "ch1", Raw: "one", Updated: time.UnixMilli(1)}

	assert.Contains(t, cache.HTML(chapter), "<p>one</p>")
	assert.Equal(t, 1, cache.cache.Len())

	chapter.Raw = "two"
	assert.Contains(t, cache.HTML(chapter), "<p>one</p>")

	chapter.Updated = time.UnixMilli(2)
	assert.Contains(t, cache.HTML(chapter), "<p>two</p>")
	assert.Equal(t, 2, cache.cache.Len())
}

func TestListenAndServe(t *testing.T) {
	s := New(newFakeSource(), Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
