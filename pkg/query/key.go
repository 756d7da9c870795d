package query

import (
	"encoding/json"
	"fmt"
)

// Key identifies a query: an ordered sequence of primitive values such as
// Key{"subscription", "sub_123"}. Structurally equal keys are the same query.
type Key []any

// NewKey builds a key from its parts.
func NewKey(parts ...any) Key {
	return Key(parts)
}

// Hash returns the canonical form of the key. Equal keys produce equal hashes.
func (k Key) Hash() string {
	b, err := json.Marshal([]any(k))
	if err != nil {
		// Non-JSON parts (channels, funcs) are a programming error, but still
		// deserve a stable identity.
		return fmt.Sprintf("%#v", []any(k))
	}
	return string(b)
}

// HasPrefix reports whether k starts with every part of prefix.
// An empty prefix matches all keys.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if (Key{k[i]}).Hash() != (Key{prefix[i]}).Hash() {
			return false
		}
	}
	return true
}

// Name returns the first part of the key as a string. It labels metrics and
// log records without the cardinality of the full key.
func (k Key) Name() string {
	if len(k) == 0 {
		return ""
	}
	if s, ok := k[0].(string); ok {
		return s
	}
	return fmt.Sprint(k[0])
}

func (k Key) String() string {
	return k.Hash()
}
