package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Set is a set that survives a JSON round trip. It encodes as
// {"$set":[...]} with members sorted so identical sets encode identically.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(v T)      { s[v] = struct{}{} }
func (s Set[T]) Remove(v T)   { delete(s, v) }
func (s Set[T]) Has(v T) bool { _, ok := s[v]; return ok }
func (s Set[T]) Len() int     { return len(s) }

type setWire[T comparable] struct {
	Items []T `json:"$set"`
}

func (s Set[T]) MarshalJSON() ([]byte, error) {
	items := make([]T, 0, len(s))
	for v := range s {
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool { return fmt.Sprint(items[i]) < fmt.Sprint(items[j]) })
	return json.Marshal(setWire[T]{Items: items})
}

func (s *Set[T]) UnmarshalJSON(b []byte) error {
	var w setWire[T]
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("%w: set: %v", ErrMalformed, err)
	}
	if w.Items == nil {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(b, &probe); err != nil {
			return fmt.Errorf("%w: set: %v", ErrMalformed, err)
		}
		if _, ok := probe["$set"]; !ok {
			return fmt.Errorf("%w: set without $set", ErrMalformed)
		}
	}
	out := make(Set[T], len(w.Items))
	for _, v := range w.Items {
		out[v] = struct{}{}
	}
	*s = out
	return nil
}

// Time is a timestamp that encodes as {"$date":"<RFC3339Nano>"}.
type Time struct {
	time.Time
}

type timeWire struct {
	Date *string `json:"$date"`
}

func (t Time) MarshalJSON() ([]byte, error) {
	s := t.UTC().Format(time.RFC3339Nano)
	return json.Marshal(timeWire{Date: &s})
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var w timeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("%w: date: %v", ErrMalformed, err)
	}
	if w.Date == nil {
		return fmt.Errorf("%w: date without $date", ErrMalformed)
	}
	parsed, err := time.Parse(time.RFC3339Nano, *w.Date)
	if err != nil {
		return fmt.Errorf("%w: date: %v", ErrMalformed, err)
	}
	t.Time = parsed
	return nil
}
