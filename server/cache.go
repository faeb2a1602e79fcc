package server

import (
	"fmt"
	"time"

	"stry/markdown"
	"stry/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// chapterCache keeps rendered chapter HTML, keyed by chapter id and update
// time so an updated chapter is rendered again.
type chapterCache struct {
	cache *expirable.LRU[string, string]
}

func newChapterCache(size int, ttl time.Duration) *chapterCache {
	if size < 1 {
		size = 256
	}
	return &chapterCache{cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *chapterCache) HTML(chapter model.Chapter) string {
	key := fmt.Sprintf("%s@%d", chapter.Id, chapter.Updated.UnixMilli())
	if cached, hit := c.cache.Get(key); hit {
		return cached
	}
	html := markdown.HTML(chapter.Raw)
	c.cache.Add(key, html)
	return html
}
