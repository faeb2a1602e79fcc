// Package pagination holds the page arithmetic shared by the API and the pages.
package pagination

import "strconv"

// Page parses a page parameter; anything missing, invalid or below 1 is page 1.
func Page(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func Pages(count, per int) int {
	if count <= 0 || per <= 0 {
		return 0
	}
	return (count + per - 1) / per
}

func Prev(page int) int {
	if page <= 1 {
		return 1
	}
	return page - 1
}

func Next(page, last int) int {
	if last < 1 {
		last = 1
	}
	if page >= last {
		return last
	}
	return page + 1
}

// Offset is the row offset of the first item on page.
func Offset(page, per int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * per
}

type Kind int

const (
	KindPrev Kind = iota
	KindNum
	KindEllipsis
	KindNext
)

type Pager struct {
	Kind     Kind
	Page     int
	Disabled bool
}

// Paginate lays out the pager for page of pages: previous, the first and
// last pages, the neighbours of page, an ellipsis for every hidden run and
// next.
func Paginate(page, pages int) []Pager {
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	pagers := []Pager{{Kind: KindPrev, Page: Prev(page), Disabled: page == 1}}

	gap := false
	for i := 1; i <= pages; i++ {
		if i == 1 || i == pages || (i >= page-1 && i <= page+1) {
			pagers = append(pagers, Pager{Kind: KindNum, Page: i, Disabled: i == page})
			gap = false
			continue
		}
		if !gap {
			pagers = append(pagers, Pager{Kind: KindEllipsis, Disabled: true})
			gap = true
		}
	}

	return append(pagers, Pager{Kind: KindNext, Page: Next(page, pages), Disabled: page == pages})
}
