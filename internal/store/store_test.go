package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type counter struct {
	N    int      `json:"n"`
	Tags []string `json:"tags"`
}

var errBoom = errors.New("boom")

func stores(t *testing.T) map[string]Store[counter] {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "data", "state.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Store[counter]{
		"memory": NewMemoryStore[counter](),
		"sqlite": NewSQLStore[counter](db, "counter"),
	}
}

func TestStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		if err := st.Save(ctx, "alice", "c1", &counter{N: 1, Tags: []string{"a"}}); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}
		got, err := st.Get(ctx, "alice", "c1")
		if err != nil {
			t.Fatalf("%s: Get: %v", name, err)
		}
		if got.N != 1 || len(got.Tags) != 1 {
			t.Errorf("%s: Get = %+v", name, got)
		}

		// Mutating the returned copy must not leak into the store.
		got.N = 99
		again, _ := st.Get(ctx, "alice", "c1")
		if again.N != 1 {
			t.Errorf("%s: store shares memory with callers (N=%d)", name, again.N)
		}

		if _, err := st.Get(ctx, "alice", "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: Get(missing) error = %v, want ErrNotFound", name, err)
		}
		if _, err := st.Get(ctx, "bob", "c1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: Get(foreign owner) error = %v, want ErrNotFound", name, err)
		}
		if err := st.Save(ctx, "bob", "c1", &counter{N: 5}); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: Save over foreign id error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		if err := st.Create(ctx, "alice", "c1", &counter{N: 1}); err != nil {
			t.Fatalf("%s: Create: %v", name, err)
		}
		if err := st.Create(ctx, "alice", "c1", &counter{N: 2}); !errors.Is(err, ErrExists) {
			t.Errorf("%s: second Create error = %v, want ErrExists", name, err)
		}
		if err := st.Create(ctx, "bob", "c1", &counter{N: 3}); !errors.Is(err, ErrExists) {
			t.Errorf("%s: Create over foreign id error = %v, want ErrExists", name, err)
		}
		got, err := st.Get(ctx, "alice", "c1")
		if err != nil || got.N != 1 {
			t.Errorf("%s: Get after rejected Creates = %+v, %v; want N=1", name, got, err)
		}
	}
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		_ = st.Save(ctx, "alice", "c1", &counter{N: 1})

		v, err := st.Update(ctx, "alice", "c1", func(c *counter) error {
			c.N++
			return nil
		})
		if err != nil || v.N != 2 {
			t.Fatalf("%s: Update = %+v, %v", name, v, err)
		}

		_, err = st.Update(ctx, "alice", "c1", func(c *counter) error {
			c.N = 1000
			return errBoom
		})
		if !errors.Is(err, errBoom) {
			t.Errorf("%s: failing Update error = %v, want errBoom", name, err)
		}
		got, _ := st.Get(ctx, "alice", "c1")
		if got.N != 2 {
			t.Errorf("%s: failing Update persisted N=%d, want 2", name, got.N)
		}

		if _, err := st.Update(ctx, "bob", "c1", func(*counter) error { return nil }); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: Update(foreign owner) error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		_ = st.Save(ctx, "alice", "c1", &counter{N: 1})
		_ = st.Save(ctx, "alice", "c2", &counter{N: 2})

		n, err := st.Prune(ctx, time.Now().Add(-time.Hour))
		if err != nil || n != 0 {
			t.Errorf("%s: Prune(past) = %d, %v; want 0", name, n, err)
		}
		n, err = st.Prune(ctx, time.Now().Add(time.Hour))
		if err != nil || n != 2 {
			t.Errorf("%s: Prune(future) = %d, %v; want 2", name, n, err)
		}
		if _, err := st.Get(ctx, "alice", "c1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: pruned value still readable", name)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("second OpenDB: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM _migrations`); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("_migrations has %d rows, want 2", n)
	}
}
