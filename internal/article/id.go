package article

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// ID identifies an article. The feed API hands out integers, RSS sources
// produce hex strings; both are kept as text.
type ID string

func (id ID) String() string { return string(id) }

// ParseID accepts whatever the user typed on the command line.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty article id")
	}
	return ID(s), nil
}

// quoted holds integer-looking ids last seen as JSON strings.
var quoted sync.Map

// MarshalJSON writes an id the way it was last read: canonical integers as
// JSON numbers, unless they arrived quoted. Ids never read from JSON are
// written as numbers when they look like one.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, ok := quoted.Load(id); !ok && isCanonicalInt(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*id = ID(v)
		if isCanonicalInt(v) {
			quoted.Store(*id, struct{}{})
		}
		return nil
	case float64:
		s := strings.TrimSpace(string(b))
		if !isCanonicalInt(s) {
			return fmt.Errorf("article id %s is not an integer", s)
		}
		*id = ID(s)
		quoted.Delete(*id)
		return nil
	default:
		return fmt.Errorf("article id must be a number or string, got %s", string(b))
	}
}

func isCanonicalInt(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
