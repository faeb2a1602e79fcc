package model

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrChapterOutOfRange = errors.New("chapter out of range")
	ErrBadRequest        = errors.New("bad request")
)
