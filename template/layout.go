package template

import (
	"strconv"

	"stry/model"
)

// Page is the frame shared by every reader page.
type Page struct {
	Title   string
	Version string
	Search  string
}

var navLists = []struct {
	path string
	name string
}{
	{"author", "authors"},
	{"origin", "origins"},
	{"warning", "warnings"},
	{"pairing", "pairings"},
	{"character", "characters"},
	{"tag", "tags"},
}

// ListPath is the /list/ segment of a listing.
func ListPath(list model.List) string {
	for _, l := range navLists {
		if l.name == string(list) {
			return l.path
		}
	}
	return string(list)
}

func listHref(path string, n int) string {
	return "/list/" + path + "/" + strconv.Itoa(n)
}
