package model

import (
	"encoding/json"
	"sort"
)

// UserSet: множество идентификаторов пользователей, дубликаты схлопываются.
type UserSet map[string]struct{}

// NewUserSet строит множество из списка id, пустые строки пропускаются.
func NewUserSet(ids ...string) UserSet {
	s := make(UserSet, len(ids))
	s.Add(ids...)
	return s
}

// Add добавляет id в множество.
func (s UserSet) Add(ids ...string) {
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
}

// Remove убирает id из множества.
func (s UserSet) Remove(id string) { delete(s, id) }

// Has проверяет членство. Безопасно для nil.
func (s UserSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union возвращает новое множество s ∪ other.
func (s UserSet) Union(other UserSet) UserSet {
	out := make(UserSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Clone копирует множество.
func (s UserSet) Clone() UserSet { return s.Union(nil) }

// Slice возвращает отсортированный список id.
func (s UserSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON кодирует множество как отсортированный массив.
func (s UserSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON принимает массив строк.
func (s *UserSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewUserSet(ids...)
	return nil
}
