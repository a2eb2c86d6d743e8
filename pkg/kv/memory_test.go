package kv

import (
	"bytes"
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("load of missing key: ok=%v err=%v", ok, err)
	}

	if err := s.Save(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, ok, err := s.Load(ctx, "k")
	if err != nil || !ok || !bytes.Equal(b, []byte("v1")) {
		t.Fatalf("load = %q ok=%v err=%v", b, ok, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Load(ctx, "k"); ok {
		t.Fatalf("key survived delete")
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v := []byte("original")
	_ = s.Save(ctx, "k", v)
	v[0] = 'X'

	b, _, _ := s.Load(ctx, "k")
	if string(b) != "original" {
		t.Fatalf("stored value aliased the caller's slice: %q", b)
	}
	b[0] = 'Y'
	again, _, _ := s.Load(ctx, "k")
	if string(again) != "original" {
		t.Fatalf("loaded value aliased the store's slice: %q", again)
	}
}
