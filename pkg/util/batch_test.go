package util

import "testing"

func TestBatch(t *testing.T) {
	chunks := Batch([]int{1, 2, 3, 4, 5}, 2)
	if len(chunks) != 3 || len(chunks[2]) != 1 || chunks[2][0] != 5 {
		t.Fatalf("unexpected chunks %v", chunks)
	}
	if got := Batch([]int{}, 0); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := Batch([]int{1, 2}, 0); len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("non-positive size should produce a single batch, got %v", got)
	}
}
