package store_test

import (
	"RouterLedger/internal/store"
	"testing"
)

// ============================================================================
// Test: MemStore
// ============================================================================

func TestMemStore_GetAbsent(t *testing.T) {
	m := store.NewMemStore()

	_, ok := m.Get("missing")
	if ok {
		t.Error("absent key should report !ok")
	}
}

func TestMemStore_SetGetDelete(t *testing.T) {
	m := store.NewMemStore()

	m.Set("k", []byte("v"))
	v, ok := m.Get("k")
	if !ok || string(v) != "v" {
		t.Fatalf("got %q ok=%v, want \"v\" ok=true", v, ok)
	}

	m.Delete("k")
	if _, ok := m.Get("k"); ok {
		t.Error("deleted key should be absent")
	}
}

func TestMemStore_SetCopiesValue(t *testing.T) {
	m := store.NewMemStore()

	buf := []byte("original")
	m.Set("k", buf)
	buf[0] = 'X'

	v, _ := m.Get("k")
	if string(v) != "original" {
		t.Errorf("store should hold its own copy, got %q", v)
	}
}

func TestMemStore_RangeOrdered(t *testing.T) {
	m := store.NewMemStore()
	m.Set("orders/b", []byte("2"))
	m.Set("orders/a", []byte("1"))
	m.Set("orders/c", []byte("3"))
	m.Set("stats", []byte("x"))

	var keys []string
	m.Range("orders/", func(k string, v []byte) bool {
		keys = append(keys, k)
		return true
	})

	want := []string{"orders/a", "orders/b", "orders/c"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestMemStore_RangeEarlyStop(t *testing.T) {
	m := store.NewMemStore()
	m.Set("a", []byte("1"))
	m.Set("b", []byte("2"))

	count := 0
	m.Range("", func(k string, v []byte) bool {
		count++
		return false
	})

	if count != 1 {
		t.Errorf("iteration should stop after first key, visited %d", count)
	}
}

func TestMemStore_ExportRestore(t *testing.T) {
	m := store.NewMemStore()
	m.Set("config", []byte("c"))
	m.Set("stats", []byte("s"))

	snap := m.Export()

	m2 := store.NewMemStore()
	m2.Restore(snap)

	v, ok := m2.Get("config")
	if !ok || string(v) != "c" {
		t.Errorf("restored store missing config, got %q ok=%v", v, ok)
	}
	if m2.Len() != 2 {
		t.Errorf("restored store has %d entries, want 2", m2.Len())
	}

	// Mutating the export must not leak into either store
	snap["config"][0] = 'X'
	v, _ = m.Get("config")
	if string(v) != "c" {
		t.Error("export mutation leaked into source store")
	}
}

// ============================================================================
// Test: Staged overlay
// ============================================================================

func TestStaged_ReadsThroughToBase(t *testing.T) {
	base := store.NewMemStore()
	base.Set("k", []byte("base"))

	st := store.NewStaged(base)
	v, ok := st.Get("k")
	if !ok || string(v) != "base" {
		t.Errorf("got %q ok=%v, want \"base\" ok=true", v, ok)
	}
}

func TestStaged_WritesInvisibleUntilCommit(t *testing.T) {
	base := store.NewMemStore()
	st := store.NewStaged(base)

	st.Set("k", []byte("staged"))

	if _, ok := base.Get("k"); ok {
		t.Error("staged write should not be visible in base before commit")
	}

	v, ok := st.Get("k")
	if !ok || string(v) != "staged" {
		t.Errorf("overlay should see its own write, got %q ok=%v", v, ok)
	}

	st.Commit()

	v, ok = base.Get("k")
	if !ok || string(v) != "staged" {
		t.Errorf("base should see write after commit, got %q ok=%v", v, ok)
	}
}

func TestStaged_DiscardDropsEverything(t *testing.T) {
	base := store.NewMemStore()
	base.Set("keep", []byte("1"))

	st := store.NewStaged(base)
	st.Set("new", []byte("2"))
	st.Delete("keep")
	st.Discard()

	if _, ok := base.Get("new"); ok {
		t.Error("discarded write leaked into base")
	}
	if _, ok := base.Get("keep"); !ok {
		t.Error("discarded delete removed base key")
	}
	if st.Dirty() {
		t.Error("overlay should be clean after discard")
	}
}

func TestStaged_DeleteShadowsBase(t *testing.T) {
	base := store.NewMemStore()
	base.Set("k", []byte("v"))

	st := store.NewStaged(base)
	st.Delete("k")

	if _, ok := st.Get("k"); ok {
		t.Error("overlay delete should shadow base value")
	}

	st.Commit()
	if _, ok := base.Get("k"); ok {
		t.Error("committed delete should remove base key")
	}
}

func TestStaged_RangeMergesOverlay(t *testing.T) {
	base := store.NewMemStore()
	base.Set("fees/atom", []byte("old"))
	base.Set("fees/usei", []byte("base"))

	st := store.NewStaged(base)
	st.Set("fees/atom", []byte("new"))
	st.Set("fees/btc", []byte("added"))
	st.Delete("fees/usei")

	got := make(map[string]string)
	st.Range("fees/", func(k string, v []byte) bool {
		got[k] = string(v)
		return true
	})

	if len(got) != 2 {
		t.Fatalf("got %d keys, want 2: %v", len(got), got)
	}
	if got["fees/atom"] != "new" {
		t.Errorf("overlay write should shadow base in range, got %q", got["fees/atom"])
	}
	if got["fees/btc"] != "added" {
		t.Errorf("overlay-only key missing from range")
	}
	if _, ok := got["fees/usei"]; ok {
		t.Error("deleted key should not appear in range")
	}
}
