package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stry/model"
	"stry/utils"
)

// SaveStory stores a scraped story and returns its id. A story scraped
// before from the same site is replaced in place and keeps its id.
func (s *Store) SaveStory(ctx context.Context, story *model.ScrapedStory) (string, error) {
	if strings.TrimSpace(story.Name) == "" {
		return "", fmt.Errorf("story name is required: %w", model.ErrBadRequest)
	}

	now := time.Now().UTC()
	created := story.Created
	if created.IsZero() {
		created = now
	}
	updated := story.Updated
	if updated.IsZero() {
		updated = created
	}
	language := defaultLanguage(story.Language)
	rating := story.Rating
	if rating == "" {
		rating = model.RatingGeneral
	}
	state := story.State
	if state == "" {
		state = model.StateInProgress
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := ""
	if story.SiteId != "" {
		err := tx.QueryRowContext(ctx, "SELECT id FROM stories WHERE site = ? AND site_id = ?", string(story.Site), story.SiteId).Scan(&id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("failed to find story: %w", err)
		}
	}

	if id != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE stories SET name = ?, summary = ?, language = ?, rating = ?, state = ?, created = ?, updated = ? WHERE id = ?`,
			story.Name, story.Summary, string(language), string(rating), string(state), toMillis(created), toMillis(updated), id); err != nil {
			return "", fmt.Errorf("failed to update story: %w", err)
		}
		for _, query := range []string{
			"DELETE FROM chapters WHERE id IN (SELECT chapter_id FROM story_chapters WHERE story_id = ?)",
			"DELETE FROM story_chapters WHERE story_id = ?",
			"DELETE FROM story_authors WHERE story_id = ?",
			"DELETE FROM story_origins WHERE story_id = ?",
			"DELETE FROM story_tags WHERE story_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return "", fmt.Errorf("failed to clear story: %w", err)
			}
		}
	} else {
		id, err = utils.NewId()
		if err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO stories (id, site, site_id, name, summary, language, rating, state, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, string(story.Site), story.SiteId, story.Name, story.Summary, string(language), string(rating), string(state), toMillis(created), toMillis(updated)); err != nil {
			return "", fmt.Errorf("failed to insert story: %w", err)
		}
	}

	nowMillis := toMillis(now)

	for _, name := range story.Authors {
		if err := link(ctx, tx, "authors", "story_authors", "author_id", id, name, "", nowMillis); err != nil {
			return "", err
		}
	}
	for _, name := range story.Origins {
		if err := link(ctx, tx, "origins", "story_origins", "origin_id", id, name, "", nowMillis); err != nil {
			return "", err
		}
	}
	for _, tag := range story.Tags {
		if err := link(ctx, tx, "tags", "story_tags", "tag_id", id, tag.Name, model.ParseTagType(string(tag.Type)), nowMillis); err != nil {
			return "", err
		}
	}

	for i, chapter := range story.Chapters {
		chapterId, err := utils.NewId()
		if err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO chapters (id, name, pre, main, post, words, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			chapterId, chapter.Name, chapter.Pre, chapter.Main, chapter.Post, chapter.Words, nowMillis, nowMillis); err != nil {
			return "", fmt.Errorf("failed to insert chapter %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO story_chapters (story_id, chapter_id, place, created, updated) VALUES (?, ?, ?, ?, ?)`,
			id, chapterId, i+1, nowMillis, nowMillis); err != nil {
			return "", fmt.Errorf("failed to link chapter %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit story: %w", err)
	}
	return id, nil
}

// nameKey is the case folded form entities are matched and searched by.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// link attaches the entity called name to a story, creating it when no
// entity of that name (and tag type) exists yet.
func link(ctx context.Context, tx *sql.Tx, table, bridge, column, storyId, name string, tagType model.TagType, now int64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	key := nameKey(name)

	lookup := "SELECT id FROM " + table + " WHERE name_key = ?"
	args := []any{key}
	if table == "tags" {
		lookup += " AND type = ?"
		args = append(args, string(tagType))
	}

	var entityId string
	err := tx.QueryRowContext(ctx, lookup, args...).Scan(&entityId)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		entityId, err = utils.NewId()
		if err != nil {
			return err
		}
		insert := "INSERT INTO " + table + " (id, name, name_key, created, updated) VALUES (?, ?, ?, ?, ?)"
		insertArgs := []any{entityId, name, key, now, now}
		if table == "tags" {
			insert = "INSERT INTO tags (id, name, name_key, type, created, updated) VALUES (?, ?, ?, ?, ?, ?)"
			insertArgs = []any{entityId, name, key, string(tagType), now, now}
		}
		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return fmt.Errorf("failed to insert %s %q: %w", table, name, err)
		}
	case err != nil:
		return fmt.Errorf("failed to find %s %q: %w", table, name, err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO "+bridge+" (story_id, "+column+", created, updated) VALUES (?, ?, ?, ?)",
		storyId, entityId, now, now); err != nil {
		return fmt.Errorf("failed to link %s %q: %w", table, name, err)
	}
	return nil
}
