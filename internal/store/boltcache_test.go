package store

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestCacheVInitsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	want := []uint64{1, 2, 3, 0xdeadbeef}
	if err := c.SaveVInits("aig-hash-1", want); err != nil {
		t.Fatalf("SaveVInits: %v", err)
	}
	got, ok, err := c.LoadVInits("aig-hash-1")
	if err != nil || !ok {
		t.Fatalf("LoadVInits: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadVInits = %v, want %v", got, want)
	}

	if _, ok, err := c.LoadVInits("missing"); err != nil || ok {
		t.Fatalf("LoadVInits(missing) = ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestCacheCexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	want := CexRecord{NRegs: 3, NPis: 1, NFrames: 8, IPo: 0, IFrame: 7, Bitmap: []byte{1, 2, 3}}
	if err := c.SaveCex("aig-hash-1", want); err != nil {
		t.Fatalf("SaveCex: %v", err)
	}
	got, ok, err := c.LoadCex("aig-hash-1")
	if err != nil || !ok {
		t.Fatalf("LoadCex: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadCex = %+v, want %+v", got, want)
	}
}
