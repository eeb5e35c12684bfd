package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is an entity's state at one instant: field names mapped to values,
// kept in insertion order. Values are strings, numbers, booleans, time.Time or
// slices of those. A nil *Snapshot means "absent".
type Snapshot struct {
	keys   []string
	values map[string]any
}

func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[string]any)}
}

// Set stores value under key. Existing keys keep their position.
// Set is meant for building a snapshot; once handed off a snapshot is not modified.
func (s *Snapshot) Set(key string, value any) *Snapshot {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
	return s
}

func (s *Snapshot) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

func (s *Snapshot) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns a copy of the field names in insertion order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		keys:   append([]string(nil), s.keys...),
		values: make(map[string]any, len(s.values)),
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Map returns the values as a plain map. Order is lost.
func (s *Snapshot) Map() map[string]any {
	m := make(map[string]any, s.Len())
	if s == nil {
		return m
	}
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.values[key])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot field %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("snapshot must be a JSON object, got %v", tok)
	}

	s.keys = nil
	s.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected snapshot key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode snapshot field %q: %w", key, err)
		}
		s.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
