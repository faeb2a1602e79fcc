package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stry/model"

	"github.com/google/uuid"
)

const taskColumns = "id, site, url, state, error, story_id, created, updated"

func scanTask(row scanner) (model.Task, error) {
	var task model.Task
	var created, updated int64
	if err := row.Scan(&task.Id, &task.Site, &task.Url, &task.State, &task.Error, &task.StoryId, &created, &updated); err != nil {
		return task, err
	}
	task.Created = fromMillis(created)
	task.Updated = fromMillis(updated)
	return task, nil
}

// EnqueueTask queues url to be scraped by the worker.
func (s *Store) EnqueueTask(ctx context.Context, site model.Site, url string) (*model.Task, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task id: %w", err)
	}
	now := time.Now().UTC()
	task := model.Task{
		Id:      id.String(),
		Site:    site,
		Url:     url,
		State:   model.TaskPending,
		Created: fromMillis(toMillis(now)),
		Updated: fromMillis(toMillis(now)),
	}
	if _, err := s.sqlDB.ExecContext(ctx, "INSERT INTO tasks (id, site, url, state, created, updated) VALUES (?, ?, ?, ?, ?, ?)",
		task.Id, string(task.Site), task.Url, string(task.State), toMillis(now), toMillis(now)); err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return &task, nil
}

// NextTask claims the oldest pending task, marking it running. It returns
// model.ErrNotFound when the queue is empty.
func (s *Store) NextTask(ctx context.Context) (*model.Task, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE state = ? ORDER BY created, id LIMIT 1", string(model.TaskPending))
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no pending task: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, "UPDATE tasks SET state = ?, updated = ? WHERE id = ?", string(model.TaskRunning), toMillis(now), task.Id); err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}

	task.State = model.TaskRunning
	task.Updated = fromMillis(toMillis(now))
	return &task, nil
}

// FinishTask marks a task done with the story it produced, or failed when
// taskErr is set.
func (s *Store) FinishTask(ctx context.Context, id string, storyId string, taskErr error) error {
	state, message := model.TaskDone, ""
	if taskErr != nil {
		state, message = model.TaskFailed, taskErr.Error()
	}
	res, err := s.sqlDB.ExecContext(ctx, "UPDATE tasks SET state = ?, error = ?, story_id = ?, updated = ? WHERE id = ?",
		string(state), message, storyId, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to finish task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// ResetTasks puts tasks left running by an interrupted worker back in the queue.
func (s *Store) ResetTasks(ctx context.Context) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx, "UPDATE tasks SET state = ?, updated = ? WHERE state = ?",
		string(model.TaskPending), toMillis(time.Now()), string(model.TaskRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to reset tasks: %w", err)
	}
	return res.RowsAffected()
}

// Tasks lists the queue, newest first.
func (s *Store) Tasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY created DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
