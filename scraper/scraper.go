// Package scraper downloads stories from fan-fiction sites.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stry/model"
	"stry/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnsupportedSite = errors.New("unsupported site")
	ErrMissingContent  = errors.New("missing content")
)

// Headers are sent with every page request.
var Headers = map[string]string{
	"Accept":          "text/html, application/xhtml+xml, application/xml; q=0.9, */*; q=0.8",
	"Accept-Language": "en-US",
	"Cache-Control":   "max-age=0",
	"Cookie":          "cookies=yes; view_adult=true",
}

var hosts = map[string]model.Site{
	"fanfiction.net":      model.SiteFanFiction,
	"archiveofourown.org": model.SiteAO3,
}

// SiteFromURL finds the site of a story url and the story id in it, the
// second segment of its path.
func SiteFromURL(raw string) (model.Site, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse url: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	site, ok := hosts[host]
	if !ok {
		return "", "", fmt.Errorf("%s: %w", u.Host, ErrUnsupportedSite)
	}

	segments := make([]string, 0, 4)
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return "", "", fmt.Errorf("no story id in %s", raw)
	}
	return site, segments[1], nil
}

type Option func(*Scraper)

// WithDelay sets the range of the random pause between page requests.
func WithDelay(min, max time.Duration) Option {
	return func(s *Scraper) {
		s.minDelay, s.maxDelay = min, max
	}
}

// WithBaseURL points a site at another origin.
func WithBaseURL(site model.Site, base string) Option {
	return func(s *Scraper) {
		s.bases[site] = strings.TrimSuffix(base, "/")
	}
}

type Scraper struct {
	fetcher  Fetcher
	minDelay time.Duration
	maxDelay time.Duration
	bases    map[model.Site]string
}

func New(fetcher Fetcher, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:  fetcher,
		minDelay: 5 * time.Second,
		maxDelay: 10 * time.Second,
		bases: map[model.Site]string{
			model.SiteFanFiction: "https://www.fanfiction.net",
			model.SiteAO3:        "https://archiveofourown.org",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape downloads the story at rawURL with all of its chapters.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*model.ScrapedStory, error) {
	site, id, err := SiteFromURL(rawURL)
	if err != nil {
		return nil, err
	}

	var story *model.ScrapedStory
	switch site {
	case model.SiteFanFiction:
		story, err = s.scrapeFanFiction(ctx, id)
	case model.SiteAO3:
		story, err = s.scrapeAO3(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	story.Site = site
	story.SiteId = id
	story.Words = 0
	for _, chapter := range story.Chapters {
		story.Words += chapter.Words
	}
	return story, nil
}

func (s *Scraper) document(ctx context.Context, url string) (*goquery.Document, error) {
	logrus.WithField("url", url).Debug("fetching page")

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

func (s *Scraper) sleep(ctx context.Context) error {
	return utils.Sleep(ctx, s.minDelay, s.maxDelay)
}

func text(doc *goquery.Document, selector string) (string, error) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%s: %w", selector, ErrMissingContent)
	}
	return strings.TrimSpace(sel.Text()), nil
}

func texts(doc *goquery.Document, selector string) []string {
	values := make([]string, 0)
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		if value := strings.TrimSpace(sel.Text()); value != "" {
			values = append(values, value)
		}
	})
	return values
}
