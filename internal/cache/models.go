package cache

import "errors"

var ErrNotFound = errors.New("article not found in cache")

type QueryOpts struct {
	Search string
	Tag    string
	Source string
	Limit  int
}
