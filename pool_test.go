package ledb

import (
	"path/filepath"
	"testing"
)

func TestPoolOpenSamePathSharesEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.db")

	p := NewPool()
	h1, err := p.Open(path, Options{})
	if err != nil {
		t.Fatalf("Open (1st): %v", err)
	}
	defer h1.Close()

	h2, err := p.Open(path, Options{})
	if err != nil {
		t.Fatalf("Open (2nd): %v", err)
	}
	defer h2.Close()

	if h1.Env() != h2.Env() {
		t.Fatalf("two Opens of the same canonical path returned different Environments")
	}
}

func TestPoolOpenDifferentRelativeFormsShareEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.db")

	p := NewPool()
	h1, err := p.Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h1.Close()

	h2, err := p.Open(filepath.Join(dir, ".", "b.db"), Options{})
	if err != nil {
		t.Fatalf("Open (dotted path): %v", err)
	}
	defer h2.Close()

	if h1.Env() != h2.Env() {
		t.Fatalf("paths differing only by a \".\" segment should canonicalize to the same environment")
	}
}

func TestPoolReleasesOnLastClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.db")

	p := NewPool()
	h1, err := p.Open(path, Options{})
	if err != nil {
		t.Fatalf("Open (1st): %v", err)
	}
	h2, err := p.Open(path, Options{})
	if err != nil {
		t.Fatalf("Open (2nd): %v", err)
	}

	if len(p.Openned()) != 1 {
		t.Fatalf("Openned() = %v, wanted exactly one entry", p.Openned())
	}

	if err := h1.Close(); err != nil {
		t.Fatalf("Close (1st handle): %v", err)
	}
	if len(p.Openned()) != 1 {
		t.Fatalf("pool entry dropped after releasing only one of two references")
	}

	if err := h2.Close(); err != nil {
		t.Fatalf("Close (2nd handle): %v", err)
	}
	if len(p.Openned()) != 0 {
		t.Fatalf("Openned() = %v, wanted empty after releasing the last reference", p.Openned())
	}
}

func TestPoolHandleCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d.db")

	p := NewPool()
	h, err := p.Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPoolInMemoryOpensIndependentOfDisk(t *testing.T) {
	p := NewPool()
	h1, err := p.Open(InMemory, Options{})
	if err != nil {
		t.Fatalf("Open(InMemory) (1st): %v", err)
	}
	defer h1.Close()
	h2, err := p.Open(InMemory, Options{})
	if err != nil {
		t.Fatalf("Open(InMemory) (2nd): %v", err)
	}
	defer h2.Close()
	if h1.Env() != h2.Env() {
		t.Fatalf("two InMemory Opens should share one Environment, per canonicalizePath's literal-match rule")
	}
}
