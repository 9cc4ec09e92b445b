package offsets

import "testing"

func TestInsertAndLookup(t *testing.T) {
	x := New()
	x.Insert("scan=1", 100)
	x.Insert("scan=2", 2500)
	x.Insert("scan=3", 4100)

	if x.Len() != 3 {
		t.Errorf("Len: %d, should be 3", x.Len())
	}
	off, ok := x.Get("scan=2")
	if !ok || off != 2500 {
		t.Errorf("Get: %d %v", off, ok)
	}
	i, ok := x.IndexOf("scan=3")
	if !ok || i != 2 {
		t.Errorf("IndexOf: %d %v", i, ok)
	}
	if _, ok := x.Get("scan=9"); ok {
		t.Errorf("Get: hit for missing id")
	}

	// Re-insertion updates in place without disturbing order
	x.Insert("scan=2", 2600)
	off, _ = x.Get("scan=2")
	if off != 2600 {
		t.Errorf("Get after update: %d, should be 2600", off)
	}
	if x.Len() != 3 {
		t.Errorf("Len after update: %d, should be 3", x.Len())
	}

	entries := x.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Offset <= entries[i-1].Offset {
			t.Errorf("Entries: not monotone at %d", i)
		}
	}
}

func TestSortByOffset(t *testing.T) {
	x := New()
	x.Insert("b", 500)
	x.Insert("a", 100)
	x.SortByOffset()
	e, _ := x.At(0)
	if e.ID != "a" {
		t.Errorf("At(0): %s, should be a", e.ID)
	}
	i, _ := x.IndexOf("b")
	if i != 1 {
		t.Errorf("IndexOf: %d, should be 1", i)
	}
}
