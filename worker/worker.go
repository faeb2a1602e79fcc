// Package worker scrapes queued story urls on a schedule.
package worker

import (
	"context"
	"errors"
	"fmt"

	"stry/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Queue interface {
	NextTask(ctx context.Context) (*model.Task, error)
	FinishTask(ctx context.Context, id string, storyId string, taskErr error) error
	SaveStory(ctx context.Context, story *model.ScrapedStory) (string, error)
}

type Scraper interface {
	Scrape(ctx context.Context, url string) (*model.ScrapedStory, error)
}

type Worker struct {
	queue   Queue
	scraper Scraper
}

func New(queue Queue, scraper Scraper) *Worker {
	return &Worker{queue: queue, scraper: scraper}
}

// Run polls the queue on the cron schedule until ctx is done and the
// running poll has finished.
func (w *Worker) Run(ctx context.Context, schedule string) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("worker poll failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule worker %q: %w", schedule, err)
	}

	logrus.WithField("schedule", schedule).Info("worker started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logrus.Info("worker stopped")
	return nil
}

// RunOnce works through every pending task and returns how many it took.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	n := 0
	for ctx.Err() == nil {
		task, err := w.queue.NextTask(ctx)
		if errors.Is(err, model.ErrNotFound) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("failed to get next task: %w", err)
		}
		n++
		if err := w.process(ctx, task); err != nil {
			return n, err
		}
	}
	return n, ctx.Err()
}

func (w *Worker) process(ctx context.Context, task *model.Task) error {
	log := logrus.WithFields(logrus.Fields{"task": task.Id, "url": task.Url})
	log.Info("scraping")

	storyId, err := w.scrape(ctx, task)
	if err != nil {
		log.WithError(err).Warn("task failed")
	} else {
		log.WithField("story", storyId).Info("task done")
	}

	// record the outcome even when ctx was cancelled mid scrape
	if ferr := w.queue.FinishTask(context.WithoutCancel(ctx), task.Id, storyId, err); ferr != nil {
		return fmt.Errorf("failed to finish task %s: %w", task.Id, ferr)
	}
	return nil
}

func (w *Worker) scrape(ctx context.Context, task *model.Task) (string, error) {
	story, err := w.scraper.Scrape(ctx, task.Url)
	if err != nil {
		return "", err
	}
	return w.queue.SaveStory(ctx, story)
}

type cronLogger struct{}

func (cronLogger) fields(keysAndValues []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	logrus.WithFields(l.fields(keysAndValues)).Debugf("cron: %s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logrus.WithFields(l.fields(keysAndValues)).WithError(err).Errorf("cron: %s", msg)
}
