// Package kv is the local key-value substrate of the workspace. Keys are
// segment paths such as Key{"project", id, "scene", sceneID}; values are
// opaque bytes.
//
// Badger persists to a directory. Memory keeps everything in a map and is
// what tests use.
package kv

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("kv: not found")

// Key is a path of segments. Segments must not contain the separator.
type Key []string

func (k Key) String() string {
	return strings.Join(k, string(DefaultSeparator))
}

// Entry is a key-value pair.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path keys.
type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	// Delete of a missing key is not an error.
	Delete(ctx context.Context, key Key) error
	// List yields the entries strictly below prefix in encoded key order.
	// An empty prefix lists everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]
	BatchSet(ctx context.Context, entries []Entry) error
	BatchDelete(ctx context.Context, keys []Key) error
	Close() error
}

// DefaultSeparator joins key segments.
const DefaultSeparator byte = ':'

// Options configures key encoding.
type Options struct {
	// Separator defaults to DefaultSeparator.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

func (o *Options) encode(k Key) []byte {
	return []byte(strings.Join(k, string(o.sep())))
}

func (o *Options) decode(b []byte) Key {
	parts := bytes.Split(b, []byte{o.sep()})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}

// prefix returns the encoded scan prefix. The trailing separator keeps
// "a:b" from matching "a:bc".
func (o *Options) prefix(k Key) []byte {
	if len(k) == 0 {
		return nil
	}
	return append(o.encode(k), o.sep())
}

// Open opens a Badger store in dir, or a Memory store when dir is empty.
func Open(dir string) (Store, error) {
	if dir == "" {
		return NewMemory(nil), nil
	}
	return NewBadger(BadgerOptions{Dir: dir})
}
