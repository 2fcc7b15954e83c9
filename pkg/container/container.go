// Package container provides the key-value container strategies being
// compared: a dynamic property bag, a dedicated associative map, and a swiss
// table.
package container

import (
	"fmt"
	"strconv"
	"strings"
)

// Container maps string keys to integer values.
type Container interface {
	Set(key string, v int)
	// Get returns the value for key and whether it was present.
	Get(key string) (int, bool)
	Has(key string) bool
	Len() int
}

// Kind identifies a container strategy.
type Kind string

const (
	// KindBag stores values as dynamically typed properties (map[string]any).
	KindBag Kind = "bag"
	// KindMap is a dedicated string-to-int map.
	KindMap Kind = "map"
	// KindSwiss is a swiss table from cockroachdb/swiss.
	KindSwiss Kind = "swiss"
)

// Kinds returns all container kinds in reporting order.
func Kinds() []Kind {
	return []Kind{KindMap, KindBag, KindSwiss}
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindBag, KindMap, KindSwiss:
		return k, nil
	}
	return "", fmt.Errorf("unknown container kind %q (expected one of %v)", s, Kinds())
}

// Describe returns a short human-readable name for the kind.
func (k Kind) Describe() string {
	switch k {
	case KindBag:
		return "property bag"
	case KindMap:
		return "map"
	case KindSwiss:
		return "swiss map"
	default:
		return string(k)
	}
}

// New returns an empty container of the given kind.
func New(kind Kind) (Container, error) {
	switch kind {
	case KindBag:
		return NewPropertyBag(), nil
	case KindMap:
		return NewAssocMap(), nil
	case KindSwiss:
		return NewSwissMap(), nil
	default:
		return nil, fmt.Errorf("unknown container kind %q", kind)
	}
}

// Key returns the key used for the i-th element, "i-<i>".
func Key(i int) string {
	return "i-" + strconv.Itoa(i)
}
