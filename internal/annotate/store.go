// Package annotate keeps the user's relationship to articles: which ones
// are bookmarked and how each was last voted. State lives in memory and is
// written through to a durable key-value store after every change.
//
// Persistence problems never fail an operation. A store that cannot read
// its data starts empty; a store that cannot write keeps working for the
// rest of the session and reports Degraded.
package annotate

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/matheuskafuri/devfeed/internal/article"
)

// KV is the durable key-value capability the store persists through.
type KV interface {
	// Get returns ok=false when the key has never been written.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Keys used in the KV. The layout is shared with the browser client.
const (
	KeyBookmarks = "bookmarks"
	KeyVotes     = "votes"
)

var (
	ErrPersistence = errors.New("annotation persistence failed")
	ErrMalformed   = errors.New("malformed annotation data")
	ErrInvalidVote = errors.New("invalid vote kind")
)

type Summary struct {
	BookmarkCount int
	VotedCount    int
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type Store struct {
	mu     sync.Mutex
	kv     KV
	logger *slog.Logger

	order      []article.ID
	bookmarked map[article.ID]bool
	votes      map[article.ID]article.VoteKind

	// Keys whose durable copy is behind memory: a write failed, or the
	// initial read failed and nothing has been written since.
	unsaved map[string]bool
	unread  map[string]bool
}

// New loads bookmarks and votes from kv. It never fails: unreadable or
// malformed values are logged and replaced by empty collections.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		logger:     slog.Default(),
		bookmarked: make(map[article.ID]bool),
		votes:      make(map[article.ID]article.VoteKind),
		unsaved:    make(map[string]bool),
		unread:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

func (s *Store) IsBookmarked(id article.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarked[id]
}

// ToggleBookmark removes id if it is bookmarked and adds it otherwise, then
// persists the set. The returned set always reflects the change; a non-nil
// error only means it was not made durable.
func (s *Store) ToggleBookmark(id article.ID) ([]article.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bookmarked[id] {
		delete(s.bookmarked, id)
		for i, b := range s.order {
			if b == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	} else {
		s.bookmarked[id] = true
		s.order = append(s.order, id)
	}

	err := s.persist(KeyBookmarks)
	return s.bookmarkList(), err
}

// RecordVote remembers kind as the user's latest vote on id, replacing any
// earlier one. Repeat votes are not rejected here.
func (s *Store) RecordVote(id article.ID, kind article.VoteKind) error {
	if !kind.Valid() {
		return ErrInvalidVote
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.votes[id] = kind
	return s.persist(KeyVotes)
}

// Vote returns the last recorded vote on id.
func (s *Store) Vote(id article.ID) (article.VoteKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.votes[id]
	return k, ok
}

// BookmarkedSubset keeps the bookmarked articles, in input order.
func (s *Store) BookmarkedSubset(articles []article.Article) []article.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []article.Article
	for _, a := range articles {
		if s.bookmarked[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{BookmarkCount: len(s.bookmarked), VotedCount: len(s.votes)}
}

// Bookmarks returns the bookmarked ids in the order they were added.
func (s *Store) Bookmarks() []article.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarkList()
}

func (s *Store) Votes() map[article.ID]article.VoteKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[article.ID]article.VoteKind, len(s.votes))
	for id, k := range s.votes {
		out[id] = k
	}
	return out
}

// Degraded reports whether some collection is not durably stored: its
// last write failed, or it could not be read and has not been written
// since. Changes made while degraded may only last for this session.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unsaved) > 0 || len(s.unread) > 0
}

func (s *Store) bookmarkList() []article.ID {
	out := make([]article.ID, len(s.order))
	copy(out, s.order)
	return out
}
