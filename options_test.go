package ledb

import "testing"

func TestOptionsMaxReadersDefault(t *testing.T) {
	var o Options
	if o.maxReaders() != DefaultMaxReaders {
		t.Fatalf("maxReaders() = %d, want default %d", o.maxReaders(), DefaultMaxReaders)
	}
	o.MaxReaders = 10
	if o.maxReaders() != 10 {
		t.Fatalf("maxReaders() = %d, want 10", o.maxReaders())
	}
}

func TestOptionsBoltOptionsPropagation(t *testing.T) {
	o := Options{MapSize: 1 << 20, ReadOnly: true, NoSync: true}
	bopt := o.boltOptions()
	if !bopt.ReadOnly {
		t.Fatalf("ReadOnly not propagated")
	}
	if !bopt.NoSync {
		t.Fatalf("NoSync not propagated")
	}
	if bopt.InitialMmapSize != 1<<20 {
		t.Fatalf("InitialMmapSize = %d, want %d", bopt.InitialMmapSize, 1<<20)
	}
}
