package cart

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/five82/folio/internal/storage"
)

type failingKV struct {
	*storage.Memory
	err error
}

func (f failingKV) Set(string, string) error { return f.err }

func openFile(t *testing.T, path string) storage.Store {
	t.Helper()
	kv, err := storage.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	return kv
}

func TestStore_ReloadReproducesEveryMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	kv := openFile(t, path)
	store, err := Load(kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	steps := []Action{
		Add{Item: item(1, "50", 5)},
		Add{Item: item(1, "50", 5)},
		Add{Item: item(2, "30", 5)},
		SetQuantity{BookID: 2, N: 4},
		Remove{BookID: 1},
		SetQuantity{BookID: 2, N: 0},
		Add{Item: item(3, "12.5", 1)},
	}
	for i, step := range steps {
		want, err := store.Dispatch(step)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		reloaded, err := Load(openFile(t, path))
		if err != nil {
			t.Fatalf("step %d reload: %v", i, err)
		}
		got := reloaded.Snapshot()
		if len(got.Items) != len(want.Items) {
			t.Fatalf("step %d: reloaded %d lines, want %d", i, len(got.Items), len(want.Items))
		}
		for j := range want.Items {
			g, w := got.Items[j], want.Items[j]
			if g.BookID != w.BookID || g.Quantity != w.Quantity || !g.UnitPrice.Equal(w.UnitPrice) || g.Stock != w.Stock {
				t.Fatalf("step %d line %d = %+v, want %+v", i, j, g, w)
			}
		}
	}
}

func TestStore_ClearThenReloadIsEmpty(t *testing.T) {
	kv := storage.NewMemory()
	store, _ := Load(kv)
	_, _ = store.Add(item(1, "50", 5))
	if _, err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	reloaded, err := Load(kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := len(reloaded.Snapshot().Items); n != 0 {
		t.Fatalf("lines after clear = %d", n)
	}
	raw, _, _ := kv.Get(storage.KeyCart)
	if raw != `{"items":[]}` {
		t.Fatalf("persisted = %s, want {\"items\":[]}", raw)
	}
}

func TestLoad_MalformedDataIsEmptyCart(t *testing.T) {
	for _, raw := range []string{"{broken", "null", `{"items":null}`, ""} {
		kv := storage.NewMemory()
		_ = kv.Set(storage.KeyCart, raw)
		store, err := Load(kv)
		if err != nil {
			t.Fatalf("Load(%q): %v", raw, err)
		}
		snap := store.Snapshot()
		if snap.Items == nil || len(snap.Items) != 0 {
			t.Fatalf("Load(%q) items = %#v", raw, snap.Items)
		}
	}
}

func TestStore_PersistFailureStillAdvancesState(t *testing.T) {
	boom := errors.New("disk full")
	store, _ := Load(failingKV{Memory: storage.NewMemory(), err: boom})

	state, err := store.Add(item(1, "50", 5))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if state.TotalItems() != 1 || store.Snapshot().TotalItems() != 1 {
		t.Fatalf("state did not advance")
	}
}

func TestStore_OnChangeReceivesNewState(t *testing.T) {
	store, _ := Load(storage.NewMemory())
	var seen []int
	store.OnChange(func(s State) { seen = append(seen, s.TotalItems()) })

	_, _ = store.Add(item(1, "50", 5))
	_, _ = store.SetQuantity(1, 3)
	_, _ = store.Remove(1)

	want := []int{1, 3, 0}
	if len(seen) != len(want) {
		t.Fatalf("notifications = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", seen, want)
		}
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	store, _ := Load(storage.NewMemory())
	_, _ = store.Add(item(1, "50", 5))
	snap := store.Snapshot()
	snap.Items[0].Quantity = 99
	snap.Items[0].UnitPrice = decimal.Zero
	if store.Snapshot().Items[0].Quantity != 1 {
		t.Fatalf("snapshot aliases store state")
	}
}
