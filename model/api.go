package model

import "encoding/json"

// Response is the envelope every API endpoint answers with.
type Response[T any] struct {
	Status   string   `json:"status"`
	Code     int      `json:"code"`
	Messages []string `json:"messages"`
	Data     T        `json:"data"`
}

func OK[T any](data T) Response[T] {
	return Response[T]{Status: "ok", Code: 200, Messages: []string{}, Data: data}
}

func Fail(code int, messages ...string) Response[struct{}] {
	if messages == nil {
		messages = []string{}
	}
	return Response[struct{}]{Status: "error", Code: code, Messages: messages}
}

func (r Response[T]) IsError() bool {
	return r.Status == "error"
}

type StoryPage struct {
	Count   int     `json:"count"`
	Pages   int     `json:"pages"`
	Stories []Story `json:"stories"`
}

// EntityPage is a listing of authors, origins or tags. The slice is
// serialized as "authors", "origins" or "tags" depending on List.
type EntityPage struct {
	List     List
	Count    int
	Pages    int
	Entities []Entity
}

func (p EntityPage) MarshalJSON() ([]byte, error) {
	entities := p.Entities
	if entities == nil {
		entities = []Entity{}
	}
	return json.Marshal(map[string]any{
		"count":      p.Count,
		"pages":      p.Pages,
		p.List.key(): entities,
	})
}

func (p *EntityPage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Count   int      `json:"count"`
		Pages   int      `json:"pages"`
		Authors []Entity `json:"authors"`
		Origins []Entity `json:"origins"`
		Tags    []Entity `json:"tags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Count, p.Pages = raw.Count, raw.Pages
	switch {
	case raw.Authors != nil:
		p.Entities = raw.Authors
	case raw.Origins != nil:
		p.Entities = raw.Origins
	default:
		p.Entities = raw.Tags
	}
	return nil
}

type ChapterPage struct {
	Chapter Chapter `json:"chapter"`
	Story   Story   `json:"story"`
}

type SearchRequest struct {
	Page   int    `json:"page"`
	Search string `json:"search"`
}

// Kind selects the entity a story listing is filtered by.
type Kind string

const (
	KindAuthor Kind = "author"
	KindOrigin Kind = "origin"
	KindTag    Kind = "tag"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindAuthor, KindOrigin, KindTag:
		return Kind(s), true
	}
	return "", false
}

// List selects an entity listing.
type List string

const (
	ListAuthors    List = "authors"
	ListOrigins    List = "origins"
	ListTags       List = "tags"
	ListCharacters List = "characters"
	ListPairings   List = "pairings"
	ListWarnings   List = "warnings"
)

var Lists = []List{ListAuthors, ListOrigins, ListTags, ListCharacters, ListPairings, ListWarnings}

func ParseList(s string) (List, bool) {
	for _, l := range Lists {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

func (l List) key() string {
	switch l {
	case ListAuthors, ListOrigins:
		return string(l)
	}
	return "tags"
}

// Kind is the story filter the entities of a listing link to.
func (l List) Kind() Kind {
	switch l {
	case ListAuthors:
		return KindAuthor
	case ListOrigins:
		return KindOrigin
	}
	return KindTag
}

// TagType is the tag type a listing is restricted to, empty for
// authors and origins. The plain tag listing only holds general tags.
func (l List) TagType() TagType {
	switch l {
	case ListTags:
		return TagGeneral
	case ListCharacters:
		return TagCharacter
	case ListPairings:
		return TagPairing
	case ListWarnings:
		return TagWarning
	}
	return ""
}

const (
	StoriesPerPage  = 10
	EntitiesPerPage = 100
)
