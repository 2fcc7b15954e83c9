package container

import "github.com/cockroachdb/swiss"

// PropertyBag holds arbitrary values under string keys. Reads must
// type-assert, which is the cost being measured against AssocMap.
type PropertyBag struct {
	props map[string]any
}

func NewPropertyBag() *PropertyBag {
	return &PropertyBag{props: map[string]any{}}
}

func (b *PropertyBag) Set(key string, v int) {
	b.props[key] = v
}

func (b *PropertyBag) Get(key string) (int, bool) {
	v, ok := b.props[key].(int)
	return v, ok
}

func (b *PropertyBag) Has(key string) bool {
	_, ok := b.props[key]
	return ok
}

func (b *PropertyBag) Len() int {
	return len(b.props)
}

// AssocMap is a dedicated string-to-int map.
type AssocMap struct {
	m map[string]int
}

func NewAssocMap() *AssocMap {
	return &AssocMap{m: map[string]int{}}
}

func (m *AssocMap) Set(key string, v int) {
	m.m[key] = v
}

func (m *AssocMap) Get(key string) (int, bool) {
	v, ok := m.m[key]
	return v, ok
}

func (m *AssocMap) Has(key string) bool {
	_, ok := m.m[key]
	return ok
}

func (m *AssocMap) Len() int {
	return len(m.m)
}

// SwissMap wraps a cockroachdb/swiss table.
type SwissMap struct {
	m *swiss.Map[string, int]
}

func NewSwissMap() *SwissMap {
	return &SwissMap{m: swiss.New[string, int](0)}
}

func (s *SwissMap) Set(key string, v int) {
	s.m.Put(key, v)
}

func (s *SwissMap) Get(key string) (int, bool) {
	return s.m.Get(key)
}

func (s *SwissMap) Has(key string) bool {
	_, ok := s.m.Get(key)
	return ok
}

func (s *SwissMap) Len() int {
	return s.m.Len()
}
