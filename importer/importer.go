// Package importer runs the sequential story import and loads its files
// into the database.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stry/model"
	"stry/scraper"
	"stry/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Headers are the browser headers the import requests are sent with.
var Headers = map[string]string{
	"Accept":          "text/html, application/xhtml+xml, application/xml; q=0.9, */*; q=0.8",
	"Accept-Language": "en-US",
	"Cache-Control":   "max-age=0",
	"Cookie":          "cookies=yes",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/64.0.3282.140 Safari/537.36 Edge/18.17763",
}

const (
	storyName    = "#profile_top > b.xcontrast_txt"
	storyAuthor  = "#profile_top > a.xcontrast_txt:not([title])"
	storySummary = "#profile_top > div.xcontrast_txt"
)

var errSkipped = errors.New("site not supported by the importer")

type Options struct {
	Dir      string
	MinDelay time.Duration
	MaxDelay time.Duration
	BaseURL  string
}

type Importer struct {
	fetcher scraper.Fetcher
	opts    Options
}

func New(fetcher scraper.Fetcher, opts Options) *Importer {
	if opts.Dir == "" {
		opts.Dir = "import"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.fanfiction.net"
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Importer{fetcher: fetcher, opts: opts}
}

func StoryFile(dir, id string) string {
	return filepath.Join(dir, fmt.Sprintf("story-%s.json", id))
}

func ErrorFile(dir, id string) string {
	return filepath.Join(dir, fmt.Sprintf("err-story-%s.json", id))
}

// Run imports every entry in order. A story that fails is logged and
// skipped; Run itself only fails when ctx is done or the output directory
// cannot be written.
func (i *Importer) Run(ctx context.Context, entries []model.ImportEntry) error {
	if err := os.MkdirAll(i.opts.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create import directory: %w", err)
	}

	for n, entry := range entries {
		log := logrus.WithField("story", entry.Id)
		log.Info("starting story")

		story, err := i.importStory(ctx, entry)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		switch {
		case errors.Is(err, errSkipped):
			log.WithField("site", entry.Site).Warn("skipping story")
		case err != nil:
			log.WithError(err).Warn("aborted story")
		default:
			if err := i.write(entry.Id, story); err != nil {
				return err
			}
			log.WithField("chapters", len(story.Chapters)).Info("finished story")
		}

		if n < len(entries)-1 {
			if err := i.sleep(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *Importer) write(id string, story *model.ImportStory) error {
	data, err := json.MarshalIndent(story, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode story %s: %w", id, err)
	}
	if err := os.WriteFile(StoryFile(i.opts.Dir, id), data, 0644); err != nil {
		return fmt.Errorf("failed to write story %s: %w", id, err)
	}
	return nil
}

func (i *Importer) sleep(ctx context.Context) error {
	d := utils.RandomDuration(i.opts.MinDelay, i.opts.MaxDelay)
	if d > 0 {
		logrus.WithField("seconds", d.Seconds()).Info("sleeping")
	}
	return utils.Sleep(ctx, d, d)
}

func (i *Importer) importStory(ctx context.Context, entry model.ImportEntry) (*model.ImportStory, error) {
	if entry.Site != model.SiteFanFiction {
		return nil, errSkipped
	}

	story := &model.ImportStory{
		Id:       entry.Id,
		Site:     entry.Site,
		Authors:  []string{},
		Rating:   entry.Rating,
		State:    entry.State,
		Created:  entry.Created,
		Updated:  entry.Updated,
		Origins:  entry.Origins,
		Tags:     entry.Tags,
		Chapters: make([]model.ImportChapter, 0, entry.Chapters),
	}

	for n := 1; n <= entry.Chapters; n++ {
		log := logrus.WithFields(logrus.Fields{"story": entry.Id, "chapter": n})
		log.Info("starting chapter")

		url := fmt.Sprintf("%s/s/%s/%d/", i.opts.BaseURL, entry.Id, n)
		body, err := i.fetcher.Fetch(ctx, url)
		if err != nil {
			var status *scraper.StatusError
			if errors.As(err, &status) {
				log.WithField("status", status.Code).Warn(status.Body)
			}
			return nil, err
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(body)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse html: %w", err)
		}

		if n == 1 {
			story.Name = strings.TrimSpace(doc.Find(storyName).Text())
			if author := strings.TrimSpace(doc.Find(storyAuthor).First().Text()); author != "" {
				story.Authors = append(story.Authors, author)
			}
			story.Summary = strings.TrimSpace(doc.Find(storySummary).Text())
		}

		chapter, err := scraper.FanFictionChapter(doc)
		if errors.Is(err, scraper.ErrMissingContent) {
			log.Error("chapter text is missing")
			if werr := os.WriteFile(ErrorFile(i.opts.Dir, entry.Id), []byte(body), 0644); werr != nil {
				return nil, fmt.Errorf("failed to write error file: %w", werr)
			}
			return nil, err
		}
		if err != nil {
			return nil, err
		}

		story.Chapters = append(story.Chapters, model.ImportChapter{
			Name:  chapter.Name,
			Place: n,
			Raw:   chapter.Main,
		})
		log.Info("finished chapter")

		if n < entry.Chapters {
			if err := i.sleep(ctx); err != nil {
				return nil, err
			}
		}
	}

	return story, nil
}
