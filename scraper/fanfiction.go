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
	ffChapterName  = "select#chap_select > option[selected]"
	ffChapterText  = "#storytext"
	ffStoryAuthor  = "#profile_top > a.xcontrast_txt:not([title])"
	ffStoryDetails = "#profile_top > span.xgray.xcontrast_txt"
	ffStoryRating  = `#profile_top > span.xgray.xcontrast_txt > a[target="rating"]`
	ffStoryDates   = "#profile_top > span.xgray.xcontrast_txt > span[data-xutime]"
	ffStorySummary = "#profile_top > div.xcontrast_txt"
	ffStoryName    = "#profile_top > b.xcontrast_txt"
	ffStoryOrigins = "#pre_story_links > span.lc-left > a.xcontrast_txt"
)

func (s *Scraper) fanfictionChapterURL(id string, chapter int) string {
	return fmt.Sprintf("%s/s/%s/%d", s.bases[model.SiteFanFiction], id, chapter)
}

func (s *Scraper) scrapeFanFiction(ctx context.Context, id string) (*model.ScrapedStory, error) {
	log := logrus.WithFields(logrus.Fields{"site": model.SiteFanFiction, "id": id})
	log.Info("scraping story details")

	doc, err := s.document(ctx, s.fanfictionChapterURL(id, 1))
	if err != nil {
		return nil, err
	}

	story, chapters, err := FanFictionDetails(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read story %s: %w", id, err)
	}

	for n := 1; n <= chapters; n++ {
		log.WithField("chapter", n).Info("scraping chapter")

		if n > 1 {
			if err := s.sleep(ctx); err != nil {
				return nil, err
			}
			doc, err = s.document(ctx, s.fanfictionChapterURL(id, n))
			if err != nil {
				return nil, err
			}
		}

		chapter, err := FanFictionChapter(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter %d of %s: %w", n, id, err)
		}
		story.Chapters = append(story.Chapters, *chapter)
	}

	return story, nil
}

var ffRatings = map[string]model.Rating{
	"MA": model.RatingExplicit,
	"M":  model.RatingMature,
	"T":  model.RatingTeen,
	"K+": model.RatingGeneral,
	"K":  model.RatingGeneral,
}

// FanFictionDetails reads the story header of a fanfiction.net chapter page
// and returns the story together with its chapter count.
func FanFictionDetails(doc *goquery.Document) (*model.ScrapedStory, int, error) {
	name, err := text(doc, ffStoryName)
	if err != nil {
		return nil, 0, err
	}
	summary, err := text(doc, ffStorySummary)
	if err != nil {
		return nil, 0, err
	}
	details, err := text(doc, ffStoryDetails)
	if err != nil {
		return nil, 0, err
	}
	author, err := text(doc, ffStoryAuthor)
	if err != nil {
		return nil, 0, err
	}

	origins := make([]string, 0)
	if last := doc.Find(ffStoryOrigins).Last(); last.Length() > 0 {
		value := strings.TrimSuffix(strings.TrimSpace(last.Text()), "Crossover")
		for _, origin := range strings.Split(value, " + ") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	if len(origins) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", ffStoryOrigins, ErrMissingContent)
	}

	ratingText, err := text(doc, ffStoryRating)
	if err != nil {
		return nil, 0, err
	}
	fields := strings.Fields(ratingText)
	if len(fields) < 2 {
		return nil, 0, fmt.Errorf("unknown rating %q", ratingText)
	}
	rating, ok := ffRatings[fields[1]]
	if !ok {
		return nil, 0, fmt.Errorf("unknown rating %q", fields[1])
	}

	dates := make([]time.Time, 0, 2)
	doc.Find(ffStoryDates).Each(func(i int, sel *goquery.Selection) {
		if unix, err := strconv.ParseInt(sel.AttrOr("data-xutime", ""), 10, 64); err == nil {
			dates = append(dates, time.Unix(unix, 0).UTC())
		}
	})
	var created, updated time.Time
	switch len(dates) {
	case 1:
		created, updated = dates[0], dates[0]
	case 2:
		updated, created = dates[0], dates[1]
	default:
		return nil, 0, fmt.Errorf("unparsable story dates: found %d", len(dates))
	}

	chapters := 1
	state := model.StateInProgress
	for _, part := range strings.Split(details, "-") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, "Chapters:"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
				chapters = n
			}
		}
		if value, ok := strings.CutPrefix(part, "Status:"); ok && strings.TrimSpace(value) == "Complete" {
			state = model.StateCompleted
		}
	}

	return &model.ScrapedStory{
		Name:     name,
		Summary:  summary,
		Language: model.LanguageEnglish,
		Rating:   rating,
		State:    state,
		Authors:  []string{author},
		Origins:  origins,
		Tags:     []model.ScrapedTag{},
		Created:  created,
		Updated:  updated,
	}, chapters, nil
}

// FanFictionChapter reads the chapter text of a fanfiction.net chapter page.
func FanFictionChapter(doc *goquery.Document) (*model.ScrapedChapter, error) {
	content := doc.Find(ffChapterText).First()
	if content.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", ffChapterText, ErrMissingContent)
	}
	html, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to get html: %w", err)
	}
	main, err := converter.Markdown(html)
	if err != nil {
		return nil, err
	}
	main = converter.Quotes(main)

	name := ""
	if option := doc.Find(ffChapterName).First(); option.Length() > 0 {
		words := strings.Fields(option.Text())
		if len(words) > 1 {
			name = strings.Join(words[1:], " ")
		}
	}
	if name == "" {
		if name, err = text(doc, ffStoryName); err != nil {
			return nil, err
		}
	}

	return &model.ScrapedChapter{
		Name:  name,
		Main:  main,
		Words: converter.WordCount(main),
	}, nil
}
