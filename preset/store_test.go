package preset

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	e := NewEntry("spiral", testPreset())
	if e.ID == "" {
		t.Fatal("NewEntry should assign an ID")
	}
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := s.Get(ctx, e.ID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Name != "spiral" {
		t.Errorf("expected name spiral, got %q", got.Name)
	}
	if got.Preset.Values != e.Preset.Values {
		t.Error("stored preset values differ")
	}
}

func TestMemoryStoreIsolatesEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	orig := testPreset()
	e := NewEntry("a", orig)
	s.Save(ctx, e)

	// Mutating the original after save must not affect the stored copy.
	orig.Values[Drag] = -123

	got, _, _ := s.Get(ctx, e.ID)
	if got.Preset.Values[Drag] == -123 {
		t.Error("store should hold an independent copy")
	}

	// Mutating a retrieved copy must not affect the store either.
	got.Preset.Values[SensorGain] = 99
	again, _, _ := s.Get(ctx, e.ID)
	if again.Preset.Values[SensorGain] == 99 {
		t.Error("Get should return an independent copy")
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := NewEntry("a", New())
	b := NewEntry("b", New())
	s.Save(ctx, a)
	s.Save(ctx, b)

	entries, err := s.List(ctx)
	if err != nil || len(entries) != 2 {
		t.Fatalf("list: len=%d err=%v", len(entries), err)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, a.ID); ok {
		t.Error("entry should be gone after delete")
	}
	entries, _ = s.List(ctx)
	if len(entries) != 1 || entries[0].ID != b.ID {
		t.Error("remaining entry should be b")
	}
}
