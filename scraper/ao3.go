package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stry/converter"
	"stry/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const (
	ao3ChapterTitle  = `#chapters > .chapter > div[role="complementary"] > h3`
	ao3ChapterSingle = "#chapters .userstuff > p"

	ao3StoryAuthor  = `#workskin > .preface > .byline.heading > a[rel="author"]`
	ao3StorySummary = "#workskin > .preface > .summary > blockquote"
	ao3StoryName    = "#workskin > .preface > .title"
	ao3StoryRating  = ".work > .rating.tags > ul > li > .tag"
	ao3StoryOrigins = ".work > .fandom.tags > ul > li > .tag"

	ao3StatsChapters = "dl.work > dd.stats > dl.stats > dd.chapters"
	ao3StatsCreated  = "dl.work > dd.stats > dl.stats > dd.published"
	ao3StatsUpdated  = "dl.work > dd.stats > dl.stats > dd.status"
)

var ao3Tags = []struct {
	selector string
	tagType  model.TagType
}{
	{".work > .warning.tags > ul > li > .tag", model.TagWarning},
	{".work > .relationship.tags > ul > li > .tag", model.TagPairing},
	{".work > .character.tags > ul > li > .tag", model.TagCharacter},
	{".work > .freeform.tags > ul > li > .tag", model.TagGeneral},
}

// Archive warnings that mean there are none.
var ao3NoWarnings = map[string]bool{
	"No Archive Warnings Apply":                 true,
	"Creator Chose Not To Use Archive Warnings": true,
}

var ao3Ratings = map[string]model.Rating{
	"Explicit":              model.RatingExplicit,
	"Mature":                model.RatingMature,
	"Teen And Up Audiences": model.RatingTeen,
	"General Audiences":     model.RatingGeneral,
	"Not Rated":             model.RatingExplicit,
}

func (s *Scraper) scrapeAO3(ctx context.Context, id string) (*model.ScrapedStory, error) {
	logrus.WithFields(logrus.Fields{"site": model.SiteAO3, "id": id}).Info("scraping story")

	doc, err := s.document(ctx, fmt.Sprintf("%s/works/%s?view_full_work=true&view_adult=true", s.bases[model.SiteAO3], id))
	if err != nil {
		return nil, err
	}

	story, chapters, err := AO3Details(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read story %s: %w", id, err)
	}

	for n := 1; n <= chapters; n++ {
		chapter, err := AO3Chapter(doc, n)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter %d of %s: %w", n, id, err)
		}
		story.Chapters = append(story.Chapters, *chapter)
	}
	return story, nil
}

func ao3Date(doc *goquery.Document, selector string) (time.Time, bool) {
	value := strings.TrimSpace(doc.Find(selector).First().Text())
	t, err := time.Parse("2006-01-02", value)
	return t, err == nil
}

// AO3Details reads a full work page of archiveofourown.org and returns the
// story together with its chapter count.
func AO3Details(doc *goquery.Document) (*model.ScrapedStory, int, error) {
	name, err := text(doc, ao3StoryName)
	if err != nil {
		return nil, 0, err
	}

	summary := ""
	if sel := doc.Find(ao3StorySummary).First(); sel.Length() > 0 {
		html, err := sel.Html()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get html: %w", err)
		}
		if summary, err = converter.Markdown(html); err != nil {
			return nil, 0, err
		}
	}

	ratingText, err := text(doc, ao3StoryRating)
	if err != nil {
		return nil, 0, err
	}
	rating, ok := ao3Ratings[ratingText]
	if !ok {
		return nil, 0, fmt.Errorf("unknown rating %q", ratingText)
	}

	stats, err := text(doc, ao3StatsChapters)
	if err != nil {
		return nil, 0, err
	}
	current, expected, _ := strings.Cut(stats, "/")
	chapters, err := strconv.Atoi(strings.TrimSpace(current))
	if err != nil || chapters < 1 {
		return nil, 0, fmt.Errorf("unparsable chapter count %q", stats)
	}
	state := model.StateInProgress
	if strings.TrimSpace(current) == strings.TrimSpace(expected) {
		state = model.StateCompleted
	}

	created, ok := ao3Date(doc, ao3StatsCreated)
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", ao3StatsCreated, ErrMissingContent)
	}
	updated, ok := ao3Date(doc, ao3StatsUpdated)
	if !ok {
		updated = created
	}

	tags := make([]model.ScrapedTag, 0)
	for _, group := range ao3Tags {
		for _, name := range texts(doc, group.selector) {
			if group.tagType == model.TagWarning && ao3NoWarnings[name] {
				continue
			}
			tags = append(tags, model.ScrapedTag{Name: name, Type: group.tagType})
		}
	}

	return &model.ScrapedStory{
		Name:     name,
		Summary:  summary,
		Language: model.LanguageEnglish,
		Rating:   rating,
		State:    state,
		Authors:  texts(doc, ao3StoryAuthor),
		Origins:  texts(doc, ao3StoryOrigins),
		Tags:     tags,
		Created:  created,
		Updated:  updated,
	}, chapters, nil
}

// AO3Chapter reads chapter n of a full work page.
func AO3Chapter(doc *goquery.Document, n int) (*model.ScrapedChapter, error) {
	paragraphs := doc.Find(fmt.Sprintf("#chapters > #chapter-%d .userstuff > p", n))
	if paragraphs.Length() == 0 {
		paragraphs = doc.Find(ao3ChapterSingle)
	}
	if paragraphs.Length() == 0 {
		return nil, fmt.Errorf("chapter %d: %w", n, ErrMissingContent)
	}

	var buf strings.Builder
	var err error
	paragraphs.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		var html string
		html, err = goquery.OuterHtml(sel)
		buf.WriteString(html)
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get html: %w", err)
	}

	main, err := converter.Markdown(buf.String())
	if err != nil {
		return nil, err
	}
	main = converter.Quotes(main)

	name := ""
	title := doc.Find(fmt.Sprintf("#chapters > #chapter-%d h3.title", n)).First()
	if title.Length() == 0 {
		title = doc.Find(ao3ChapterTitle).First()
	}
	if title.Length() > 0 {
		name = strings.TrimSpace(title.Text())
		if _, after, ok := strings.Cut(name, ":"); ok && strings.TrimSpace(after) != "" {
			name = strings.TrimSpace(after)
		}
	}
	if name == "" {
		if name, err = text(doc, ao3StoryName); err != nil {
			return nil, err
		}
	}

	return &model.ScrapedChapter{
		Name:  name,
		Main:  main,
		Words: converter.WordCount(main),
	}, nil
}
