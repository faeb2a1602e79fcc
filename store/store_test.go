package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"stry/model"
	"stry/search"
	"stry/store/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "stry.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func sampleStory(siteId string, updated time.Time, tags ...model.ScrapedTag) *model.ScrapedStory {
	return &model.ScrapedStory{
		Site:     model.SiteFanFiction,
		SiteId:   siteId,
		Name:     "Story " + siteId,
		Summary:  "A summary.",
		Rating:   model.RatingTeen,
		State:    model.StateCompleted,
		Authors:  []string{"Writer"},
		Origins:  []string{"Harry Potter"},
		Tags:     tags,
		Created:  updated.Add(-time.Hour),
		Updated:  updated,
		Chapters: []model.ScrapedChapter{
			{Name: "One", Main: "first chapter body", Words: 3},
			{Name: "Two", Pre: "a note", Main: "second body", Words: 2},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpenTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stry.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestSplitMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	up, down := splitMigration(content)
	assert.Equal(t, "\nCREATE TABLE a (id TEXT);\n", up)
	assert.Equal(t, "\nDROP TABLE a;\n", down)

	up, down = splitMigration("SELECT 1;")
	assert.Equal(t, "SELECT 1;", up)
	assert.Empty(t, down)
}

func TestMigrationErrorsSurface(t *testing.T) {
	ctx := context.Background()
	store, err := Connect(filepath.Join(t.TempDir(), "stry.db"))
	require.NoError(t, err)
	defer store.Close()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n")},
		"002_b.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE a (id TEXT);\n")},
	}
	applied, err := migrateUp(ctx, store.sqlDB, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, []string{"001_a.sql"}, applied)

	done, err := isApplied(ctx, store.sqlDB, "002_b.sql")
	require.NoError(t, err)
	assert.False(t, done)

	reverted, err := migrateDown(ctx, store.sqlDB, fsys, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql"}, reverted)

	_, err = migrateDown(ctx, store.sqlDB, fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
	}, 1)
	assert.NoError(t, err)

	_, err = migrateUp(ctx, store.sqlDB, fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}})
	require.NoError(t, err)
	_, err = migrateDown(ctx, store.sqlDB, fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}}, 1)
	assert.ErrorContains(t, err, "cannot be reverted")
}

func TestMigrateDownAndUp(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.MigrateDown(ctx, 0)
	assert.Error(t, err)

	reverted, err := store.MigrateDown(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"003_name_key.sql"}, reverted)
	_, err = store.sqlDB.ExecContext(ctx, "SELECT name_key FROM tags")
	assert.Error(t, err)

	reverted, err = store.MigrateDown(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"002_tasks.sql", "001_stories.sql"}, reverted)
	_, err = store.sqlDB.ExecContext(ctx, "SELECT id FROM stories")
	assert.Error(t, err)

	applied, err := store.MigrateUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_stories.sql", "002_tasks.sql", "003_name_key.sql"}, applied)

	applied, err = store.MigrateUp(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	_, err = store.SaveStory(ctx, sampleStory("1", time.Now(), model.ScrapedTag{Name: "Fluff"}))
	assert.NoError(t, err)
}

func TestNameKeyBackfill(t *testing.T) {
	ctx := context.Background()
	store, err := Connect(filepath.Join(t.TempDir(), "stry.db"))
	require.NoError(t, err)
	defer store.Close()

	first := fstest.MapFS{}
	for _, name := range []string{"001_stories.sql", "002_tasks.sql"} {
		data, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		first[name] = &fstest.MapFile{Data: data}
	}
	_, err = migrateUp(ctx, store.sqlDB, first)
	require.NoError(t, err)
	_, err = store.sqlDB.ExecContext(ctx, "INSERT INTO tags (id, name, type, created, updated) VALUES ('t1', ' Éowyn ', 'character', 0, 0)")
	require.NoError(t, err)

	applied, err := store.MigrateUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"003_name_key.sql"}, applied)

	var key string
	require.NoError(t, store.sqlDB.QueryRowContext(ctx, "SELECT name_key FROM tags WHERE id = 't1'").Scan(&key))
	assert.Equal(t, "éowyn", key)
}

func TestSearchFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	now := time.Now()
	_, err := store.SaveStory(ctx, sampleStory("a", now, model.ScrapedTag{Name: "Éowyn", Type: model.TagCharacter}))
	require.NoError(t, err)
	second := sampleStory("b", now, model.ScrapedTag{Name: "éowyn", Type: model.TagCharacter})
	second.Authors = []string{"Ångström"}
	_, err = store.SaveStory(ctx, second)
	require.NoError(t, err)
	third := sampleStory("c", now, model.ScrapedTag{Name: "Fluff"})
	third.Authors = []string{"ÅNGSTRÖM"}
	_, err = store.SaveStory(ctx, third)
	require.NoError(t, err)

	tags, err := store.Entities(ctx, model.ListCharacters, 1)
	require.NoError(t, err)
	require.Equal(t, 1, tags.Count)
	assert.Equal(t, "Éowyn", tags.Entities[0].Name)

	authors, err := store.Entities(ctx, model.ListAuthors, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, authors.Count)

	for _, input := range []string{"éowyn", "ÉOWYN", "Éowyn"} {
		q, err := search.Parse(input)
		require.NoError(t, err)
		page, err := store.Search(ctx, q, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Count, input)
	}

	q, err := search.Parse("fluff, -ÉOWYN")
	require.NoError(t, err)
	page, err := store.Search(ctx, q, 1)
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "Story c", page.Stories[0].Name)
}

func TestSaveAndGetStory(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	id, err := store.SaveStory(ctx, sampleStory("100", now,
		model.ScrapedTag{Name: "Angst", Type: model.TagWarning},
		model.ScrapedTag{Name: "Harry/Draco", Type: model.TagPairing},
	))
	require.NoError(t, err)
	require.Len(t, id, 6)

	story, err := store.Story(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Story 100", story.Name)
	assert.Equal(t, model.LanguageEnglish, story.Language)
	assert.Equal(t, model.Square{Rating: model.RatingTeen, Warnings: model.WarningUsing, State: model.StateCompleted}, story.Square)
	assert.Equal(t, 2, story.Chapters)
	assert.Equal(t, 5, story.Words)
	assert.Equal(t, now, story.Updated)
	require.Len(t, story.Authors, 1)
	assert.Equal(t, "Writer", story.Authors[0].Name)
	require.Len(t, story.Origins, 1)
	require.Len(t, story.Tags, 2)
	assert.Equal(t, model.TagWarning, story.Tags[0].Type)
	assert.Equal(t, model.TagPairing, story.Tags[1].Type)
}

func TestStoryNotFound(t *testing.T) {
	store := openTempStore(t)

	_, err := store.Story(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSaveStoryReplacesSameSiteStory(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	first, err := store.SaveStory(ctx, sampleStory("7", now))
	require.NoError(t, err)

	again := sampleStory("7", now.Add(time.Hour))
	again.Chapters = append(again.Chapters, model.ScrapedChapter{Name: "Three", Main: "third", Words: 1})
	second, err := store.SaveStory(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	story, err := store.Story(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 3, story.Chapters)
	assert.Len(t, story.Authors, 1)

	page, err := store.Stories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
}

func TestSaveStoryReusesEntities(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	now := time.Now()
	_, err := store.SaveStory(ctx, sampleStory("1", now, model.ScrapedTag{Name: "Fluff"}))
	require.NoError(t, err)
	second := sampleStory("2", now, model.ScrapedTag{Name: "fluff"})
	second.Authors = []string{"writer"}
	_, err = store.SaveStory(ctx, second)
	require.NoError(t, err)

	authors, err := store.Entities(ctx, model.ListAuthors, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, authors.Count)

	tags, err := store.Entities(ctx, model.ListTags, 1)
	require.NoError(t, err)
	require.Equal(t, 1, tags.Count)
	assert.Equal(t, model.TagGeneral, tags.Entities[0].Type)

	stories, err := store.StoriesOf(ctx, model.KindAuthor, authors.Entities[0].Id, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stories.Count)
}

func TestStoriesPagination(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		_, err := store.SaveStory(ctx, sampleStory(fmt.Sprint(i), base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	page, err := store.Stories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Stories, 10)
	assert.Equal(t, "Story 11", page.Stories[0].Name)

	page, err = store.Stories(ctx, 2)
	require.NoError(t, err)
	require.Len(t, page.Stories, 2)
	assert.Equal(t, "Story 0", page.Stories[1].Name)

	page, err = store.Stories(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, page.Stories)
}

func TestStoriesOfUnknownEntity(t *testing.T) {
	store := openTempStore(t)

	_, err := store.StoriesOf(context.Background(), model.KindTag, "missing", 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = store.StoriesOf(context.Background(), model.Kind("series"), "x", 1)
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestChapter(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	id, err := store.SaveStory(ctx, sampleStory("1", time.Now()))
	require.NoError(t, err)

	page, err := store.Chapter(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, "Two", page.Chapter.Name)
	assert.Equal(t, "a note\n\n---\n\nsecond body", page.Chapter.Raw)
	assert.Equal(t, id, page.Story.Id)

	for _, n := range []int{0, 3, -1} {
		_, err := store.Chapter(ctx, id, n)
		assert.ErrorIs(t, err, model.ErrChapterOutOfRange, "chapter %d", n)
	}

	_, err = store.Chapter(ctx, "missing", 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	chapters, err := store.Chapters(ctx, id)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "One", chapters[0].Name)
}

func TestEntitiesByTagType(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.SaveStory(ctx, sampleStory("1", time.Now(),
		model.ScrapedTag{Name: "Harry Potter", Type: model.TagCharacter},
		model.ScrapedTag{Name: "Hermione Granger", Type: model.TagCharacter},
		model.ScrapedTag{Name: "Violence", Type: model.TagWarning},
	))
	require.NoError(t, err)

	characters, err := store.Entities(ctx, model.ListCharacters, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, characters.Count)
	assert.Equal(t, 1, characters.Pages)
	assert.Equal(t, "Harry Potter", characters.Entities[0].Name)

	warnings, err := store.Entities(ctx, model.ListWarnings, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, warnings.Count)

	_, err = store.Entities(ctx, model.List("series"), 1)
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	now := time.Now()
	fluff := model.ScrapedTag{Name: "Fluff"}
	angst := model.ScrapedTag{Name: "Angst"}
	humor := model.ScrapedTag{Name: "Humor"}

	_, err := store.SaveStory(ctx, sampleStory("a", now, fluff, humor))
	require.NoError(t, err)
	_, err = store.SaveStory(ctx, sampleStory("b", now, fluff, angst))
	require.NoError(t, err)
	explicit := sampleStory("c", now, humor)
	explicit.Rating = model.RatingExplicit
	_, err = store.SaveStory(ctx, explicit)
	require.NoError(t, err)

	names := func(input string) []string {
		t.Helper()
		q, err := search.Parse(input)
		require.NoError(t, err)
		page, err := store.Search(ctx, q, 1)
		require.NoError(t, err)
		out := make([]string, 0, len(page.Stories))
		for _, s := range page.Stories {
			out = append(out, s.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Story a", "Story b"}, names("fluff"))
	assert.ElementsMatch(t, []string{"Story a"}, names("FLUFF, humor"))
	assert.ElementsMatch(t, []string{"Story a"}, names("fluff, -angst"))
	assert.ElementsMatch(t, []string{"Story c"}, names("rating:e"))
	assert.ElementsMatch(t, []string{"Story c"}, names("humor, rating:explicit"))
	assert.Empty(t, names("romance"))

	_, err = store.Search(ctx, search.Query{Exclude: []string{"angst"}}, 1)
	assert.True(t, errors.Is(err, model.ErrBadRequest))
}

func TestTaskQueue(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.NextTask(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)

	first, err := store.EnqueueTask(ctx, model.SiteFanFiction, "https://www.fanfiction.net/s/1/1")
	require.NoError(t, err)
	second, err := store.EnqueueTask(ctx, model.SiteAO3, "https://archiveofourown.org/works/2")
	require.NoError(t, err)

	task, err := store.NextTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Id, task.Id)
	assert.Equal(t, model.TaskRunning, task.State)

	require.NoError(t, store.FinishTask(ctx, task.Id, "abc234", nil))

	task, err = store.NextTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Id, task.Id)
	require.NoError(t, store.FinishTask(ctx, task.Id, "", errors.New("boom")))

	tasks, err := store.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	byId := map[string]model.Task{}
	for _, task := range tasks {
		byId[task.Id] = task
	}
	assert.Equal(t, model.TaskDone, byId[first.Id].State)
	assert.Equal(t, "abc234", byId[first.Id].StoryId)
	assert.Equal(t, model.TaskFailed, byId[second.Id].State)
	assert.Equal(t, "boom", byId[second.Id].Error)

	assert.ErrorIs(t, store.FinishTask(ctx, "missing", "", nil), model.ErrNotFound)
}

func TestResetTasks(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	_, err := store.EnqueueTask(ctx, model.SiteFanFiction, "https://www.fanfiction.net/s/1/1")
	require.NoError(t, err)
	_, err = store.NextTask(ctx)
	require.NoError(t, err)

	n, err := store.ResetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.NextTask(ctx)
	assert.NoError(t, err)
}
