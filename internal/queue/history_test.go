package queue

import (
	"strconv"
	"testing"
)

func TestHistory_PushPop(t *testing.T) {
	h := newHistory(3)

	if _, ok := h.pop(); ok {
		t.Error("pop on empty history should fail")
	}

	h.push(track("a"))
	h.push(track("b"))

	got, ok := h.pop()
	if !ok || got.ID != "b" {
		t.Errorf("pop() = %v, %v, want b, true", got.ID, ok)
	}
	got, ok = h.pop()
	if !ok || got.ID != "a" {
		t.Errorf("pop() = %v, %v, want a, true", got.ID, ok)
	}
	if h.size() != 0 {
		t.Errorf("size() = %d, want 0", h.size())
	}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := newHistory(50)

	for i := 0; i < 60; i++ {
		h.push(track(strconv.Itoa(i)))
	}

	if h.size() != 50 {
		t.Fatalf("size() = %d, want 50", h.size())
	}
	entries := h.tracks()
	if entries[0].ID != "10" {
		t.Errorf("oldest entry = %s, want 10 (entries 0-9 evicted)", entries[0].ID)
	}
	if entries[len(entries)-1].ID != "59" {
		t.Errorf("newest entry = %s, want 59", entries[len(entries)-1].ID)
	}
}

func TestHistory_Clear(t *testing.T) {
	h := newHistory(3)
	h.push(track("a"))

	h.clear()

	if h.size() != 0 {
		t.Errorf("size() = %d, want 0", h.size())
	}
}
