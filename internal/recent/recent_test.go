package recent

import (
	"fmt"
	"sync"
	"testing"
)

// --- Functional Tests ---

func TestPrependNewestFirst(t *testing.T) {
	var items []string
	items = Prepend(items, "a", 3)
	items = Prepend(items, "b", 3)

	if len(items) != 2 || items[0] != "b" || items[1] != "a" {
		t.Fatalf("expected [b a], got %v", items)
	}
}

func TestPrependEvictsTail(t *testing.T) {
	var items []int
	for i := 1; i <= 4; i++ {
		items = Prepend(items, i, 3)
	}

	want := []int{4, 3, 2}
	if fmt.Sprint(items) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, items)
	}
}

func TestPrependDoesNotAliasInput(t *testing.T) {
	base := make([]int, 2, 10)
	base[0], base[1] = 2, 1

	out := Prepend(base, 3, 5)
	out[1] = 99

	if base[0] != 2 {
		t.Fatalf("input modified: %v", base)
	}
}

func TestPrependCapacityOne(t *testing.T) {
	items := Prepend([]string{"old"}, "new", 1)
	if len(items) != 1 || items[0] != "new" {
		t.Fatalf("expected [new], got %v", items)
	}
}

func TestPrependPanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for capacity 0")
		}
	}()
	Prepend([]int{}, 1, 0)
}

func TestRemove(t *testing.T) {
	items := []string{"c", "b", "a"}

	out, removed := Remove(items, func(s string) bool { return s == "b" })
	if !removed || fmt.Sprint(out) != "[c a]" {
		t.Fatalf("expected [c a] removed=true, got %v %v", out, removed)
	}

	out, removed = Remove(out, func(s string) bool { return s == "zzz" })
	if removed || len(out) != 2 {
		t.Fatalf("expected no-op, got %v %v", out, removed)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate([]int{1, 2, 3}, 2); fmt.Sprint(got) != "[1 2]" {
		t.Fatalf("expected [1 2], got %v", got)
	}
	if got := Truncate([]int{1}, 5); len(got) != 1 {
		t.Fatalf("expected untouched slice, got %v", got)
	}
}

func TestListPushAndEvict(t *testing.T) {
	l := New[string](2)

	if _, evicted := l.Push("a"); evicted {
		t.Fatal("unexpected eviction")
	}
	l.Push("b")

	ev, evicted := l.Push("c")
	if !evicted || ev != "a" {
		t.Fatalf("expected eviction of a, got %v %v", ev, evicted)
	}
	if got := l.Items(); fmt.Sprint(got) != "[c b]" {
		t.Fatalf("expected [c b], got %v", got)
	}
}

func TestListClear(t *testing.T) {
	l := New[int](3)
	l.Push(1)
	l.Push(2)
	l.Clear()
	if l.Len() != 0 {
		t.Fatalf("expected empty list, got %d", l.Len())
	}
}

// --- Concurrency Tests ---

func TestListConcurrentPush(t *testing.T) {
	l := New[int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Push(g*1000 + i)
			}
		}(g)
	}
	wg.Wait()

	if l.Len() != 50 {
		t.Fatalf("expected 50 entries, got %d", l.Len())
	}
}
