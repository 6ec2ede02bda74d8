package annotate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/matheuskafuri/devfeed/internal/article"
)

func (s *Store) load() {
	var ids []article.ID
	if err := s.read(KeyBookmarks, &ids); err != nil {
		ids = nil
	}
	for _, id := range ids {
		if !s.bookmarked[id] {
			s.bookmarked[id] = true
			s.order = append(s.order, id)
		}
	}

	votes := map[article.ID]article.VoteKind{}
	if err := s.read(KeyVotes, &votes); err == nil {
		if err := validateVotes(votes); err != nil {
			s.logger.Warn("ignoring stored votes", "key", KeyVotes, "err", err)
			votes = nil
		}
		for id, k := range votes {
			s.votes[id] = k
		}
	}
}

// read decodes key into v. A missing key leaves v untouched and is not an
// error.
func (s *Store) read(key string, v any) error {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		s.unread[key] = true
		err = fmt.Errorf("reading %s: %w: %w", key, ErrPersistence, err)
		s.logger.Warn("annotations unavailable, starting empty", "key", key, "err", err)
		return err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		err = fmt.Errorf("decoding %s: %w: %w", key, ErrMalformed, err)
		s.logger.Warn("ignoring stored annotations", "key", key, "err", err)
		return err
	}
	return nil
}

// persist writes key, then retries every other key whose last write
// failed. A key stays unsaved until one of its writes succeeds.
func (s *Store) persist(key string) error {
	s.unsaved[key] = true

	var errs []error
	for _, k := range []string{key, otherKey(key)} {
		if !s.unsaved[k] {
			continue
		}
		if err := s.flush(k); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(s.unsaved, k)
		delete(s.unread, k)
	}
	return errors.Join(errs...)
}

func otherKey(key string) string {
	if key == KeyBookmarks {
		return KeyVotes
	}
	return KeyBookmarks
}

func (s *Store) flush(key string) error {
	var v any = s.votes
	if key == KeyBookmarks {
		v = s.bookmarkList()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w: %w", key, ErrPersistence, err)
	}
	if err := s.kv.Set(key, string(data)); err != nil {
		err = fmt.Errorf("writing %s: %w: %w", key, ErrPersistence, err)
		s.logger.Warn("annotations kept for this session only", "key", key, "err", err)
		return err
	}
	return nil
}

func validateVotes(votes map[article.ID]article.VoteKind) error {
	var errs []error
	for id, k := range votes {
		if !k.Valid() {
			errs = append(errs, fmt.Errorf("article %s: %w %q", id, ErrMalformed, string(k)))
		}
	}
	return errors.Join(errs...)
}
