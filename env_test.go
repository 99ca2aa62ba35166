package ledb

import "testing"

func newTestEnv(t *testing.T) *Environment {
	t.Helper()
	return openMemEnvironment(InMemory, Options{})
}

func TestEnvironmentCollectionCreatesAndCaches(t *testing.T) {
	env := newTestEnv(t)
	c1, err := env.Collection("post")
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	c2, err := env.Collection("post")
	if err != nil {
		t.Fatalf("Collection (second call): %v", err)
	}
	if c1 != c2 {
		t.Fatalf("Collection returned different handles for the same name")
	}
}

func TestEnvironmentGetCollectionsSorted(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := env.Collection(name); err != nil {
			t.Fatalf("Collection(%q): %v", name, err)
		}
	}
	got, err := env.GetCollections()
	if err != nil {
		t.Fatalf("GetCollections: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("GetCollections = %v, wanted %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetCollections = %v, wanted %v", got, want)
		}
	}
}

func TestEnvironmentHasCollection(t *testing.T) {
	env := newTestEnv(t)
	ok, err := env.HasCollection("post")
	if err != nil {
		t.Fatalf("HasCollection: %v", err)
	}
	if ok {
		t.Fatalf("HasCollection(post) = true before creation")
	}
	if _, err := env.Collection("post"); err != nil {
		t.Fatalf("Collection: %v", err)
	}
	ok, err = env.HasCollection("post")
	if err != nil {
		t.Fatalf("HasCollection: %v", err)
	}
	if !ok {
		t.Fatalf("HasCollection(post) = false after creation")
	}
}

func TestEnvironmentDropCollection(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.Collection("post")
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if _, err := c.Insert(NewDocument()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := c.EnsureIndex("title", IndexDuplicated, KeyTypeString); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if err := env.DropCollection("post"); err != nil {
		t.Fatalf("DropCollection: %v", err)
	}
	ok, err := env.HasCollection("post")
	if err != nil {
		t.Fatalf("HasCollection: %v", err)
	}
	if ok {
		t.Fatalf("HasCollection(post) = true after drop")
	}

	// Recreating the collection after a drop must start from a clean slate
	// (fresh primary counter, no leftover index definitions).
	c2, err := env.Collection("post")
	if err != nil {
		t.Fatalf("Collection after drop: %v", err)
	}
	if len(c2.GetIndexes()) != 0 {
		t.Fatalf("recreated collection has leftover indexes: %v", c2.GetIndexes())
	}
	primary, err := c2.Insert(NewDocument())
	if err != nil {
		t.Fatalf("Insert after drop: %v", err)
	}
	if primary != 1 {
		t.Fatalf("primary after drop = %d, wanted 1 (counter reset)", primary)
	}
}

func TestEnvironmentGetInfoAndStats(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Collection("post"); err != nil {
		t.Fatalf("Collection: %v", err)
	}
	info := env.GetInfo()
	if info.MaxReaders != DefaultMaxReaders {
		t.Fatalf("GetInfo().MaxReaders = %d, wanted %d", info.MaxReaders, DefaultMaxReaders)
	}
	if _, err := env.GetStats(); err != nil {
		t.Fatalf("GetStats: %v", err)
	}
}
