package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"stry/converter"
	"stry/model"

	"github.com/sirupsen/logrus"
)

type Saver interface {
	SaveStory(ctx context.Context, story *model.ScrapedStory) (string, error)
}

// Load saves every story-*.json file of dir and returns the ids the stories
// were stored under.
func Load(ctx context.Context, dir string, saver Saver) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "story-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list import files: %w", err)
	}
	sort.Strings(files)

	ids := make([]string, 0, len(files))
	for _, file := range files {
		story, err := ReadStory(file)
		if err != nil {
			return ids, err
		}
		id, err := saver.SaveStory(ctx, story)
		if err != nil {
			return ids, fmt.Errorf("failed to save %s: %w", file, err)
		}
		logrus.WithFields(logrus.Fields{"file": file, "id": id}).Info("loaded story")
		ids = append(ids, id)
	}
	return ids, nil
}

// ReadStory reads an import file as a scraped story.
func ReadStory(file string) (*model.ScrapedStory, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	var imported model.ImportStory
	if err := json.Unmarshal(data, &imported); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file, err)
	}
	return FromImport(&imported), nil
}

func FromImport(imported *model.ImportStory) *model.ScrapedStory {
	chapters := make([]model.ImportChapter, 0, len(imported.Chapters))
	for _, chapter := range imported.Chapters {
		// older files index chapters by place and leave a null first entry
		if chapter.Place == 0 && chapter.Raw == "" {
			continue
		}
		chapters = append(chapters, chapter)
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Place < chapters[j].Place
	})

	story := &model.ScrapedStory{
		Site:     imported.Site,
		SiteId:   imported.Id,
		Name:     imported.Name,
		Summary:  imported.Summary,
		Language: model.LanguageEnglish,
		Rating:   imported.Rating,
		State:    imported.State,
		Authors:  imported.Authors,
		Origins:  imported.Origins,
		Tags:     imported.Tags,
		Created:  imported.Created.Time(),
		Updated:  imported.Updated.Time(),
	}
	for _, chapter := range chapters {
		raw := converter.Quotes(chapter.Raw)
		story.Chapters = append(story.Chapters, model.ScrapedChapter{
			Name:  chapter.Name,
			Main:  raw,
			Words: converter.WordCount(raw),
		})
		story.Words += converter.WordCount(raw)
	}
	return story
}
