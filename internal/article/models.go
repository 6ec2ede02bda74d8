// Package article holds the article types shared by the feed client, the
// local cache and the annotation store.
package article

import (
	"fmt"
	"strings"
	"time"
)

// SourceAPI marks articles served by the feed API. Articles pulled from
// RSS/Atom sources carry the source name instead.
const SourceAPI = "api"

type Article struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Upvotes     int      `json:"upvotes"`
	Downvotes   int      `json:"downvotes"`
	Views       int      `json:"views"`
	Link        string   `json:"url,omitempty"`

	Source    string    `json:"-"`
	FetchedAt time.Time `json:"-"`
}

// Votable reports whether the feed API knows about this article.
func (a Article) Votable() bool {
	return a.Source == "" || a.Source == SourceAPI
}

func (a Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Matches does a case-insensitive substring match over title and description.
func (a Article) Matches(search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(a.Title), q) ||
		strings.Contains(strings.ToLower(a.Description), q)
}

// Stats is the aggregate served by /api/stats.
type Stats struct {
	TotalPosts   int `json:"total_posts"`
	TotalUpvotes int `json:"total_upvotes"`
	TotalViews   int `json:"total_views"`
}

type VoteKind string

const (
	Upvote   VoteKind = "upvote"
	Downvote VoteKind = "downvote"
)

func (k VoteKind) Valid() bool {
	return k == Upvote || k == Downvote
}

func ParseVoteKind(s string) (VoteKind, error) {
	k := VoteKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown vote kind %q (valid: upvote, downvote)", s)
	}
	return k, nil
}
