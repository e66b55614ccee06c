package drbg

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
)

func TestDeterministicFromSeed(t *testing.T) {
	a := NewFromSeed([]byte("seed"), []byte("test"))
	b := NewFromSeed([]byte("seed"), []byte("test"))
	c := NewFromSeed([]byte("seed"), []byte("other"))

	ba, bb, bc := make([]byte, 100), make([]byte, 100), make([]byte, 100)
	io.ReadFull(a, ba)
	io.ReadFull(b, bb)
	io.ReadFull(c, bc)

	if !bytes.Equal(ba, bb) {
		t.Fatalf("same seed produced different output")
	}
	if bytes.Equal(ba, bc) {
		t.Fatalf("personalization had no effect")
	}
}

func TestSuccessiveReadsDiffer(t *testing.T) {
	g := NewFromSeed([]byte("seed"), nil)
	first := make([]byte, 32)
	second := make([]byte, 32)
	g.Read(first)
	g.Read(second)
	if bytes.Equal(first, second) {
		t.Fatalf("generator repeated itself")
	}
}

func TestReseedChangesStream(t *testing.T) {
	a := NewFromSeed([]byte("seed"), nil)
	b := NewFromSeed([]byte("seed"), nil)
	if err := b.Reseed(bytes.NewReader(make([]byte, SeedSize))); err != nil {
		t.Fatalf("Reseed: %v", err)
	}
	ba, bb := make([]byte, 32), make([]byte, 32)
	a.Read(ba)
	b.Read(bb)
	if bytes.Equal(ba, bb) {
		t.Fatalf("reseed had no effect")
	}
}

func TestFailedReseedKeepsState(t *testing.T) {
	a := NewFromSeed([]byte("seed"), nil)
	b := NewFromSeed([]byte("seed"), nil)
	if err := b.Reseed(bytes.NewReader(make([]byte, SeedSize-1))); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("short reseed: %v", err)
	}
	ba, bb := make([]byte, 32), make([]byte, 32)
	if _, err := a.Read(ba); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Read(bb); err != nil {
		t.Fatalf("Read after failed reseed: %v", err)
	}
	if !bytes.Equal(ba, bb) {
		t.Fatalf("failed reseed changed the stream")
	}
}

func TestNewShortEntropy(t *testing.T) {
	if _, err := New(bytes.NewReader(make([]byte, 10)), nil); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected short entropy error, got %v", err)
	}
	var g Generator
	if _, err := g.Read(make([]byte, 1)); !errors.Is(err, ErrNotSeeded) {
		t.Fatalf("unseeded read: %v", err)
	}
}

func TestConcurrentReads(t *testing.T) {
	g, err := New(nil, []byte("concurrent"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var wg sync.WaitGroup
	out := make([][]byte, 8)
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = make([]byte, 64)
			g.Read(out[i])
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(out); i++ {
		if bytes.Equal(out[0], out[i]) {
			t.Fatalf("concurrent readers got identical output")
		}
	}
}
