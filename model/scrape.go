package model

import (
	"fmt"
	"time"
)

type Site string

const (
	SiteFanFiction Site = "fanfiction"
	SiteAO3        Site = "archiveofourown"
)

func (s Site) Url(id string) string {
	switch s {
	case SiteFanFiction:
		return fmt.Sprintf("https://www.fanfiction.net/s/%s/1", id)
	case SiteAO3:
		return fmt.Sprintf("https://archiveofourown.org/works/%s", id)
	}
	return ""
}

type ScrapedTag struct {
	Name string  `json:"name"`
	Type TagType `json:"type"`
}

type ScrapedChapter struct {
	Name  string `json:"name"`
	Pre   string `json:"pre,omitempty"`
	Main  string `json:"main"`
	Post  string `json:"post,omitempty"`
	Words int    `json:"words"`
}

// ScrapedStory is a story as read from a story site, before it has ids.
type ScrapedStory struct {
	Site     Site             `json:"site"`
	SiteId   string           `json:"site_id"`
	Name     string           `json:"name"`
	Summary  string           `json:"summary"`
	Language Language         `json:"language"`
	Rating   Rating           `json:"rating"`
	State    State            `json:"state"`
	Authors  []string         `json:"authors"`
	Origins  []string         `json:"origins"`
	Tags     []ScrapedTag     `json:"tags"`
	Chapters []ScrapedChapter `json:"chapters"`
	Words    int              `json:"words"`
	Created  time.Time        `json:"created"`
	Updated  time.Time        `json:"updated"`
}

// ImportDate is the calendar date format used by import lists and files.
type ImportDate struct {
	Year  int `json:"year" mapstructure:"year"`
	Month int `json:"month" mapstructure:"month"`
	Day   int `json:"day" mapstructure:"day"`
}

func (d ImportDate) Time() time.Time {
	if d.Year == 0 {
		return time.Time{}
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// ImportEntry describes one story of an import list.
type ImportEntry struct {
	Id       string       `json:"id" mapstructure:"id"`
	Site     Site         `json:"site" mapstructure:"site"`
	Rating   Rating       `json:"rating" mapstructure:"rating"`
	State    State        `json:"state" mapstructure:"state"`
	Created  ImportDate   `json:"created" mapstructure:"created"`
	Updated  ImportDate   `json:"updated" mapstructure:"updated"`
	Chapters int          `json:"chapters" mapstructure:"chapters"`
	Origins  []string     `json:"origins" mapstructure:"origins"`
	Tags     []ScrapedTag `json:"tags" mapstructure:"tags"`
}

type ImportChapter struct {
	Name  string `json:"name"`
	Place int    `json:"place"`
	Raw   string `json:"raw"`
}

// ImportStory is the file the importer writes for every finished story.
type ImportStory struct {
	Id       string          `json:"id"`
	Site     Site            `json:"site"`
	Name     string          `json:"name"`
	Summary  string          `json:"summary"`
	Authors  []string        `json:"authors"`
	Rating   Rating          `json:"rating"`
	State    State           `json:"state"`
	Created  ImportDate      `json:"created"`
	Updated  ImportDate      `json:"updated"`
	Origins  []string        `json:"origins"`
	Tags     []ScrapedTag    `json:"tags"`
	Chapters []ImportChapter `json:"chapters"`
}

type TaskState string

const (
	TaskPending TaskState = "pending"
	TaskRunning TaskState = "running"
	TaskDone    TaskState = "done"
	TaskFailed  TaskState = "failed"
)

// Task is a queued scrape of a story url.
type Task struct {
	Id      string    `json:"id"`
	Site    Site      `json:"site"`
	Url     string    `json:"url"`
	State   TaskState `json:"state"`
	Error   string    `json:"error,omitempty"`
	StoryId string    `json:"story_id,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}
