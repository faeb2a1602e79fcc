package model

import "time"

type Language string

const LanguageEnglish Language = "english"

type Rating string

const (
	RatingExplicit Rating = "explicit"
	RatingMature   Rating = "mature"
	RatingTeen     Rating = "teen"
	RatingGeneral  Rating = "general"
)

// ParseRating accepts the long names and their first letter.
func ParseRating(s string) (Rating, bool) {
	switch s {
	case "explicit", "e":
		return RatingExplicit, true
	case "mature", "m":
		return RatingMature, true
	case "teen", "t":
		return RatingTeen, true
	case "general", "g":
		return RatingGeneral, true
	}
	return "", false
}

type Warning string

const (
	WarningUsing Warning = "using"
	WarningNone  Warning = "none"
)

type State string

const (
	StateCompleted  State = "completed"
	StateInProgress State = "in-progress"
	StateHiatus     State = "hiatus"
	StateAbandoned  State = "abandoned"
)

type TagType string

const (
	TagWarning   TagType = "warning"
	TagPairing   TagType = "pairing"
	TagCharacter TagType = "character"
	TagGeneral   TagType = "general"
)

func ParseTagType(s string) TagType {
	switch TagType(s) {
	case TagWarning, TagPairing, TagCharacter:
		return TagType(s)
	}
	return TagGeneral
}

type Square struct {
	Rating   Rating  `json:"rating"`
	Warnings Warning `json:"warnings"`
	State    State   `json:"state"`
}

type Story struct {
	Id       string    `json:"id"`
	Name     string    `json:"name"`
	Summary  string    `json:"summary"`
	Language Language  `json:"language"`
	Square   Square    `json:"square"`
	Chapters int       `json:"chapters"`
	Words    int       `json:"words"`
	Authors  []Author  `json:"authors"`
	Origins  []Origin  `json:"origins"`
	Tags     []Tag     `json:"tags"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// WarningsFor reports using when any tag is a warning tag.
func WarningsFor(tags []Tag) Warning {
	for _, tag := range tags {
		if tag.Type == TagWarning {
			return WarningUsing
		}
	}
	return WarningNone
}

type Chapter struct {
	Id      string    `json:"id"`
	Name    string    `json:"name"`
	Raw     string    `json:"raw"`
	Words   int       `json:"words"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

type Author struct {
	Id      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

type Origin struct {
	Id      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

type Tag struct {
	Id      string    `json:"id"`
	Name    string    `json:"name"`
	Type    TagType   `json:"type"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Entity is the shape shared by authors, origins and tags in listings.
type Entity struct {
	Id      string    `json:"id"`
	Name    string    `json:"name"`
	Type    TagType   `json:"type,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}
