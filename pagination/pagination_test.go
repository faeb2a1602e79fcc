package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrevNext(t *testing.T) {
	assert.Equal(t, 1, Prev(1))
	assert.Equal(t, 1, Prev(0))
	assert.Equal(t, 4, Prev(5))

	assert.Equal(t, 5, Next(5, 5))
	assert.Equal(t, 5, Next(9, 5))
	assert.Equal(t, 3, Next(2, 5))
	assert.Equal(t, 1, Next(1, 0))
}

func TestPage(t *testing.T) {
	tests := map[string]int{
		"":    1,
		"0":   1,
		"-3":  1,
		"abc": 1,
		"7":   7,
	}
	for in, want := range tests {
		assert.Equal(t, want, Page(in), "page %q", in)
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 10))
	assert.Equal(t, 1, Pages(1, 10))
	assert.Equal(t, 1, Pages(10, 10))
	assert.Equal(t, 2, Pages(11, 10))
	assert.Equal(t, 3, Pages(201, 100))
}

func layout(pagers []Pager) []string {
	out := make([]string, 0, len(pagers))
	for _, p := range pagers {
		s := ""
		switch p.Kind {
		case KindPrev:
			s = "<"
		case KindNext:
			s = ">"
		case KindEllipsis:
			s = "..."
		case KindNum:
			s = string(rune('0' + p.Page))
		}
		if p.Disabled && p.Kind != KindEllipsis {
			s = "[" + s + "]"
		}
		out = append(out, s)
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name        string
		page, pages int
		want        []string
	}{
		{"single", 1, 1, []string{"[<]", "[1]", "[>]"}},
		{"no pages", 1, 0, []string{"[<]", "[1]", "[>]"}},
		{"first", 1, 5, []string{"[<]", "[1]", "2", "...", "5", ">"}},
		{"middle", 5, 9, []string{"<", "1", "...", "4", "[5]", "6", "...", "9", ">"}},
		{"near start", 3, 9, []string{"<", "1", "2", "[3]", "4", "...", "9", ">"}},
		{"last", 9, 9, []string{"<", "1", "...", "8", "[9]", "[>]"}},
		{"clamped", 12, 4, []string{"<", "1", "...", "3", "[4]", "[>]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layout(Paginate(tt.page, tt.pages)))
		})
	}
}

func TestPaginateTargets(t *testing.T) {
	pagers := Paginate(1, 3)
	assert.Equal(t, 1, pagers[0].Page)
	assert.Equal(t, 2, pagers[len(pagers)-1].Page)

	pagers = Paginate(3, 3)
	assert.Equal(t, 2, pagers[0].Page)
	assert.Equal(t, 3, pagers[len(pagers)-1].Page)
}
