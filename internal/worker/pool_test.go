package worker

import (
	"strconv"
	"sync/atomic"
	"testing"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results := Map(8, items, func(n int) string {
		return strconv.Itoa(n * 2)
	})

	if len(results) != 100 {
		t.Fatalf("expected 100 results, got %d", len(results))
	}
	for i, r := range results {
		if want := strconv.Itoa(i * 2); r != want {
			t.Fatalf("result %d out of order: got %s, want %s", i, r, want)
		}
	}
}

func TestMap_Sequential(t *testing.T) {
	results := Map(1, []int{1, 2, 3}, func(n int) int { return n + 1 })
	if len(results) != 3 || results[0] != 2 || results[2] != 4 {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestMap_EmptyInput(t *testing.T) {
	if results := Map(4, nil, func(n int) int { return n }); results != nil {
		t.Errorf("expected nil for empty input, got %v", results)
	}
}

func TestMap_AllItemsProcessedOnce(t *testing.T) {
	var calls atomic.Int64
	items := make([]int, 57)

	Map(4, items, func(n int) int {
		calls.Add(1)
		return n
	})

	if calls.Load() != 57 {
		t.Errorf("expected 57 calls, got %d", calls.Load())
	}
}

func TestMap_MoreWorkersThanItems(t *testing.T) {
	results := Map(16, []int{5, 6}, func(n int) int { return n * n })
	if len(results) != 2 || results[0] != 25 || results[1] != 36 {
		t.Errorf("unexpected results: %v", results)
	}
}
