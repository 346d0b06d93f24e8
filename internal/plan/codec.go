package plan

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes set as msgpack.
func Encode(w io.Writer, set *Set) error {
	set.Schema = Schema
	return msgpack.NewEncoder(w).Encode(set)
}

// Decode reads a msgpack set. Sets of another schema are rejected.
func Decode(r io.Reader) (*Set, error) {
	var set Set
	if err := msgpack.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	if set.Schema != Schema {
		return nil, fmt.Errorf("decode plans: schema %d, want %d", set.Schema, Schema)
	}
	return &set, nil
}

// EncodeJSON writes set as indented JSON.
func EncodeJSON(w io.Writer, set *Set) error {
	set.Schema = Schema
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}
