package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stry/model"
	"stry/pagination"
	"stry/search"
)

const storyColumns = `S.id, S.name, S.summary, S.language, S.rating, S.state, S.created, S.updated,
	(SELECT COUNT(*) FROM story_chapters SC WHERE SC.story_id = S.id),
	(SELECT COALESCE(SUM(C.words), 0) FROM story_chapters SC JOIN chapters C ON C.id = SC.chapter_id WHERE SC.story_id = S.id)`

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (model.Story, error) {
	var story model.Story
	var created, updated int64
	err := row.Scan(
		&story.Id, &story.Name, &story.Summary, &story.Language,
		&story.Square.Rating, &story.Square.State,
		&created, &updated,
		&story.Chapters, &story.Words,
	)
	if err != nil {
		return story, err
	}
	story.Created = fromMillis(created)
	story.Updated = fromMillis(updated)
	return story, nil
}

// Stories lists every story, most recently updated first.
func (s *Store) Stories(ctx context.Context, page int) (*model.StoryPage, error) {
	return s.storyPage(ctx, page, "", nil)
}

var storyFilters = map[model.Kind]string{
	model.KindAuthor: "SELECT story_id FROM story_authors WHERE author_id = ?",
	model.KindOrigin: "SELECT story_id FROM story_origins WHERE origin_id = ?",
	model.KindTag:    "SELECT story_id FROM story_tags WHERE tag_id = ?",
}

// StoriesOf lists the stories of an author, origin or tag.
func (s *Store) StoriesOf(ctx context.Context, kind model.Kind, id string, page int) (*model.StoryPage, error) {
	filter, ok := storyFilters[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q: %w", kind, model.ErrBadRequest)
	}
	if _, err := s.Entity(ctx, kind, id); err != nil {
		return nil, err
	}
	return s.storyPage(ctx, page, "WHERE S.id IN ("+filter+")", []any{id})
}

// Search lists the stories matching q.
func (s *Store) Search(ctx context.Context, q search.Query, page int) (*model.StoryPage, error) {
	if q.Empty() {
		return nil, fmt.Errorf("empty search: %w", model.ErrBadRequest)
	}

	var clauses []string
	var args []any

	if len(q.Include) > 0 {
		clauses = append(clauses, `S.id IN (
			SELECT ST.story_id FROM story_tags ST JOIN tags T ON T.id = ST.tag_id
			WHERE T.name_key IN (`+placeholders(len(q.Include))+`)
			GROUP BY ST.story_id HAVING COUNT(DISTINCT T.name_key) = ?)`)
		for _, name := range q.Include {
			args = append(args, nameKey(name))
		}
		args = append(args, len(q.Include))
	}

	if len(q.Exclude) > 0 {
		clauses = append(clauses, `S.id NOT IN (
			SELECT ST.story_id FROM story_tags ST JOIN tags T ON T.id = ST.tag_id
			WHERE T.name_key IN (`+placeholders(len(q.Exclude))+`))`)
		for _, name := range q.Exclude {
			args = append(args, nameKey(name))
		}
	}

	if len(q.Ratings) > 0 {
		clauses = append(clauses, "S.rating IN ("+placeholders(len(q.Ratings))+")")
		for _, r := range q.Ratings {
			args = append(args, string(r))
		}
	}

	return s.storyPage(ctx, page, "WHERE "+strings.Join(clauses, " AND "), args)
}

func (s *Store) storyPage(ctx context.Context, page int, where string, args []any) (*model.StoryPage, error) {
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories S "+where, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count stories: %w", err)
	}

	query := "SELECT " + storyColumns + " FROM stories S " + where + " ORDER BY S.updated DESC, S.id LIMIT ? OFFSET ?"
	queryArgs := append(append([]any{}, args...), model.StoriesPerPage, pagination.Offset(page, model.StoriesPerPage))

	rows, err := s.sqlDB.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	stories := make([]model.Story, 0, model.StoriesPerPage)
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	for i := range stories {
		if err := s.fillStory(ctx, &stories[i]); err != nil {
			return nil, err
		}
	}

	return &model.StoryPage{
		Count:   count,
		Pages:   pagination.Pages(count, model.StoriesPerPage),
		Stories: stories,
	}, nil
}

// Story returns one story with its authors, origins and tags.
func (s *Store) Story(ctx context.Context, id string) (*model.Story, error) {
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+storyColumns+" FROM stories S WHERE S.id = ?", id)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("story %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	if err := s.fillStory(ctx, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (s *Store) fillStory(ctx context.Context, story *model.Story) error {
	story.Language = defaultLanguage(story.Language)

	authors, err := s.related(ctx, "SELECT A.id, A.name, '', A.created, A.updated FROM authors A JOIN story_authors SA ON SA.author_id = A.id WHERE SA.story_id = ? ORDER BY A.name", story.Id)
	if err != nil {
		return fmt.Errorf("failed to get authors: %w", err)
	}
	origins, err := s.related(ctx, "SELECT O.id, O.name, '', O.created, O.updated FROM origins O JOIN story_origins SO ON SO.origin_id = O.id WHERE SO.story_id = ? ORDER BY O.name", story.Id)
	if err != nil {
		return fmt.Errorf("failed to get origins: %w", err)
	}
	tags, err := s.related(ctx, `SELECT T.id, T.name, T.type, T.created, T.updated FROM tags T JOIN story_tags ST ON ST.tag_id = T.id WHERE ST.story_id = ?
		ORDER BY CASE T.type WHEN 'warning' THEN 0 WHEN 'pairing' THEN 1 WHEN 'character' THEN 2 ELSE 3 END, T.name`, story.Id)
	if err != nil {
		return fmt.Errorf("failed to get tags: %w", err)
	}

	story.Authors = make([]model.Author, 0, len(authors))
	for _, e := range authors {
		story.Authors = append(story.Authors, model.Author{Id: e.Id, Name: e.Name, Created: e.Created, Updated: e.Updated})
	}
	story.Origins = make([]model.Origin, 0, len(origins))
	for _, e := range origins {
		story.Origins = append(story.Origins, model.Origin{Id: e.Id, Name: e.Name, Created: e.Created, Updated: e.Updated})
	}
	story.Tags = make([]model.Tag, 0, len(tags))
	for _, e := range tags {
		story.Tags = append(story.Tags, model.Tag{Id: e.Id, Name: e.Name, Type: e.Type, Created: e.Created, Updated: e.Updated})
	}
	story.Square.Warnings = model.WarningsFor(story.Tags)
	return nil
}

func defaultLanguage(l model.Language) model.Language {
	if l == "" {
		return model.LanguageEnglish
	}
	return l
}

func (s *Store) related(ctx context.Context, query string, args ...any) ([]model.Entity, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := make([]model.Entity, 0)
	for rows.Next() {
		var e model.Entity
		var created, updated int64
		if err := rows.Scan(&e.Id, &e.Name, &e.Type, &created, &updated); err != nil {
			return nil, err
		}
		e.Created = fromMillis(created)
		e.Updated = fromMillis(updated)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

var entityQueries = map[model.Kind]string{
	model.KindAuthor: "SELECT id, name, '', created, updated FROM authors WHERE id = ?",
	model.KindOrigin: "SELECT id, name, '', created, updated FROM origins WHERE id = ?",
	model.KindTag:    "SELECT id, name, type, created, updated FROM tags WHERE id = ?",
}

// Entity returns the author, origin or tag with id.
func (s *Store) Entity(ctx context.Context, kind model.Kind, id string) (*model.Entity, error) {
	query, ok := entityQueries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q: %w", kind, model.ErrBadRequest)
	}
	entities, err := s.related(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return &entities[0], nil
}

// Entities lists authors, origins or tags by name.
func (s *Store) Entities(ctx context.Context, list model.List, page int) (*model.EntityPage, error) {
	var table, columns, where string
	var args []any

	switch list {
	case model.ListAuthors:
		table, columns = "authors", "id, name, ''"
	case model.ListOrigins:
		table, columns = "origins", "id, name, ''"
	case model.ListTags, model.ListCharacters, model.ListPairings, model.ListWarnings:
		table, columns = "tags", "id, name, type"
		if t := list.TagType(); t != "" {
			where = " WHERE type = ?"
			args = append(args, string(t))
		}
	default:
		return nil, fmt.Errorf("unknown list %q: %w", list, model.ErrBadRequest)
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+where, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", list, err)
	}

	query := "SELECT " + columns + ", created, updated FROM " + table + where + " ORDER BY name_key, id LIMIT ? OFFSET ?"
	entities, err := s.related(ctx, query, append(args, model.EntitiesPerPage, pagination.Offset(page, model.EntitiesPerPage))...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", list, err)
	}

	return &model.EntityPage{
		List:     list,
		Count:    count,
		Pages:    pagination.Pages(count, model.EntitiesPerPage),
		Entities: entities,
	}, nil
}

const chapterColumns = "C.id, C.name, C.pre, C.main, C.post, C.words, C.created, C.updated"

func scanChapter(row scanner) (model.Chapter, error) {
	var chapter model.Chapter
	var pre, main, post string
	var created, updated int64
	if err := row.Scan(&chapter.Id, &chapter.Name, &pre, &main, &post, &chapter.Words, &created, &updated); err != nil {
		return chapter, err
	}
	chapter.Raw = joinRaw(pre, main, post)
	chapter.Created = fromMillis(created)
	chapter.Updated = fromMillis(updated)
	return chapter, nil
}

// joinRaw puts the author notes before and after the body behind rules.
func joinRaw(pre, main, post string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{pre, main, post} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// Chapter returns chapter n, counted from 1, of a story.
func (s *Store) Chapter(ctx context.Context, storyId string, n int) (*model.ChapterPage, error) {
	story, err := s.Story(ctx, storyId)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > story.Chapters {
		return nil, fmt.Errorf("chapter %d of %d: %w", n, story.Chapters, model.ErrChapterOutOfRange)
	}

	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+chapterColumns+` FROM story_chapters SC JOIN chapters C ON C.id = SC.chapter_id
		WHERE SC.story_id = ? ORDER BY SC.place LIMIT 1 OFFSET ?`, storyId, n-1)
	chapter, err := scanChapter(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &model.ChapterPage{Chapter: chapter, Story: *story}, nil
}

// Chapters returns every chapter of a story in reading order.
func (s *Store) Chapters(ctx context.Context, storyId string) ([]model.Chapter, error) {
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+chapterColumns+` FROM story_chapters SC JOIN chapters C ON C.id = SC.chapter_id
		WHERE SC.story_id = ? ORDER BY SC.place`, storyId)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	chapters := make([]model.Chapter, 0)
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}
