// Package search parses the story search box.
//
// A search is a comma separated list of terms. A term starting with "-"
// excludes stories carrying that tag, "rating:<r>" keeps only stories of
// rating r (explicit, mature, teen, general or their first letter) and any
// other term is a tag the story must carry. Tag names are case-insensitive.
package search

import (
	"fmt"
	"slices"
	"strings"

	"stry/model"
)

// MaxLength is the size from which a search request body is refused.
const MaxLength = 1024

type Query struct {
	Include []string
	Exclude []string
	Ratings []model.Rating
}

func (q Query) Empty() bool {
	return len(q.Include) == 0 && len(q.Ratings) == 0
}

// Parse reads a search. It fails with model.ErrBadRequest when nothing is
// left to match on.
func Parse(input string) (Query, error) {
	q := Query{}

	for _, term := range strings.Split(input, ",") {
		term = strings.Join(strings.Fields(term), " ")
		if term == "" {
			continue
		}

		if value, ok := strings.CutPrefix(strings.ToLower(term), "rating:"); ok {
			rating, ok := model.ParseRating(strings.TrimSpace(value))
			if !ok {
				return Query{}, fmt.Errorf("unknown rating %q: %w", value, model.ErrBadRequest)
			}
			if !slices.Contains(q.Ratings, rating) {
				q.Ratings = append(q.Ratings, rating)
			}
			continue
		}

		if name, ok := strings.CutPrefix(term, "-"); ok {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" && !slices.Contains(q.Exclude, name) {
				q.Exclude = append(q.Exclude, name)
			}
			continue
		}

		name := strings.ToLower(term)
		if !slices.Contains(q.Include, name) {
			q.Include = append(q.Include, name)
		}
	}

	if q.Empty() {
		return Query{}, fmt.Errorf("search needs at least one tag or rating: %w", model.ErrBadRequest)
	}
	return q, nil
}

// String renders q back into the search box syntax.
func (q Query) String() string {
	terms := make([]string, 0, len(q.Include)+len(q.Exclude)+len(q.Ratings))
	for _, r := range q.Ratings {
		terms = append(terms, "rating:"+string(r))
	}
	terms = append(terms, q.Include...)
	for _, e := range q.Exclude {
		terms = append(terms, "-"+e)
	}
	return strings.Join(terms, ", ")
}
