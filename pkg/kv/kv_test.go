package kv_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/haivivi/mediaforge/pkg/kv"
)

func backends(t *testing.T) map[string]kv.Store {
	t.Helper()
	b, err := kv.NewBadger(kv.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	m := kv.NewMemory(nil)
	t.Cleanup(func() {
		b.Close()
		m.Close()
	})
	return map[string]kv.Store{"memory": m, "badger": b}
}

func keys(t *testing.T, s kv.Store, prefix kv.Key) []string {
	t.Helper()
	var out []string
	for e, err := range s.List(context.Background(), prefix) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		out = append(out, e.Key.String())
	}
	return out
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := kv.Key{"project", "p1"}
			if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
				t.Fatalf("Get missing = %v, want ErrNotFound", err)
			}
			if err := s.Set(ctx, key, []byte("a")); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(ctx, key, []byte("b")); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, key)
			if err != nil || string(got) != "b" {
				t.Fatalf("Get = %q, %v", got, err)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
				t.Fatalf("Get deleted = %v", err)
			}
			if err := s.Delete(ctx, kv.Key{"never", "there"}); err != nil {
				t.Fatalf("Delete missing: %v", err)
			}
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.BatchSet(ctx, []kv.Entry{
				{Key: kv.Key{"scene", "p1", "b"}, Value: []byte("2")},
				{Key: kv.Key{"scene", "p1", "a"}, Value: []byte("1")},
				{Key: kv.Key{"scene", "p10", "a"}, Value: []byte("3")},
				{Key: kv.Key{"project", "p1"}, Value: []byte("p")},
			})
			if err != nil {
				t.Fatal(err)
			}
			if got, want := keys(t, s, kv.Key{"scene", "p1"}), []string{"scene:p1:a", "scene:p1:b"}; !slices.Equal(got, want) {
				t.Errorf("List(scene/p1) = %v, want %v", got, want)
			}
			if got := keys(t, s, nil); len(got) != 4 {
				t.Errorf("List(all) = %v", got)
			}

			n := 0
			for range s.List(ctx, kv.Key{"scene"}) {
				n++
				break
			}
			if n != 1 {
				t.Errorf("early break yielded %d", n)
			}

			if err := s.BatchDelete(ctx, []kv.Key{{"scene", "p1", "a"}, {"scene", "p1", "b"}}); err != nil {
				t.Fatal(err)
			}
			if got := keys(t, s, kv.Key{"scene", "p1"}); len(got) != 0 {
				t.Errorf("after BatchDelete = %v", got)
			}
		})
	}
}

func TestSeparator(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemory(&kv.Options{Separator: '/'})
	if err := s.Set(ctx, kv.Key{"a:b", "c"}, []byte("x")); err != nil {
		t.Fatal(err)
	}
	for e, err := range s.List(ctx, kv.Key{"a:b"}) {
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(e.Key, kv.Key{"a:b", "c"}) {
			t.Errorf("key = %v", e.Key)
		}
	}
}

func TestOpen(t *testing.T) {
	s, err := kv.Open("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*kv.Memory); !ok {
		t.Errorf("Open(\"\") = %T", s)
	}
	s.Close()

	s, err = kv.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*kv.Badger); !ok {
		t.Errorf("Open(dir) = %T", s)
	}
}
