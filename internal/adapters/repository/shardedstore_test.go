package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/drought/internal/domain/model"
)

func key(loc string, month, ts int) model.Key {
	return model.Key{Location: loc, Month: model.Month(month), Timescale: ts}
}

func TestShardedStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer store.Close()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	p := model.GammaParams{Alpha: 2.1, Loc: model.FitLoc, Beta: 0.9}
	if err := store.Put(ctx, key("Albany", 1, 3), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	got, err := store.Get(ctx, key("Albany", 1, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Errorf("expected %+v, got %+v", p, got)
	}

	_, err = store.Get(ctx, key("Albany", 2, 3))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// overwrite
	p2 := model.GammaParams{Alpha: 3, Beta: 1}
	if err := store.Put(ctx, key("Albany", 1, 3), p2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = store.Get(ctx, key("Albany", 1, 3))
	if got != p2 || store.Count(ctx) != 1 {
		t.Errorf("overwrite failed: %+v count=%d", got, store.Count(ctx))
	}
}

func TestShardedStore_RejectsInvalidParams(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer store.Close()

	err := store.Put(ctx, key("A", 1, 1), model.GammaParams{Alpha: 0, Beta: 1})
	if !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
	if store.Count(ctx) != 0 {
		t.Error("invalid params must not be stored")
	}
}

func TestShardedStore_Listing(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx, WithShardCount(4))
	defer store.Close()

	var fitted []model.FittedParams
	for _, loc := range []string{"Zed", "Alpha", "Mid"} {
		for m := 12; m >= 1; m-- {
			fitted = append(fitted, model.FittedParams{Key: key(loc, m, 1), Params: model.GammaParams{Alpha: 1, Beta: float64(m)}})
		}
	}
	if err := store.Load(ctx, fitted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	locs := store.Locations(ctx)
	if fmt.Sprint(locs) != "[Alpha Mid Zed]" {
		t.Errorf("unexpected locations %v", locs)
	}

	byLoc, err := store.ByLocation(ctx, "Mid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byLoc) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(byLoc))
	}
	for i, f := range byLoc {
		if int(f.Key.Month) != i+1 {
			t.Errorf("entry %d has month %d", i, f.Key.Month)
		}
	}

	if _, err := store.ByLocation(ctx, "Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all := store.All(ctx)
	if len(all) != 36 || all[0].Key.Location != "Alpha" || all[35].Key.Location != "Zed" {
		t.Errorf("unexpected ordering of All: first=%v last=%v", all[0].Key, all[len(all)-1].Key)
	}
}

func TestShardedStore_Lookup(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer store.Close()

	_ = store.Put(ctx, key("A", 5, 6), model.GammaParams{Alpha: 1.5, Beta: 2})
	lookup := store.Lookup(ctx)
	if _, ok := lookup(key("A", 5, 6)); !ok {
		t.Error("expected hit")
	}
	if _, ok := lookup(key("A", 6, 6)); ok {
		t.Error("expected miss")
	}
}

func TestShardedStore_LoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewShardedStore(context.Background())
	defer store.Close()
	cancel()

	err := store.Load(ctx, []model.FittedParams{{Key: key("A", 1, 1), Params: model.GammaParams{Alpha: 1, Beta: 1}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestShardedStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	defer store.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			loc := fmt.Sprintf("loc-%d", w)
			for m := 1; m <= 12; m++ {
				for ts := 1; ts <= 12; ts++ {
					if err := store.Put(ctx, key(loc, m, ts), model.GammaParams{Alpha: 1, Beta: 1}); err != nil {
						t.Errorf("put failed: %v", err)
					}
					if _, err := store.Get(ctx, key(loc, m, ts)); err != nil {
						t.Errorf("get failed: %v", err)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if n := store.Count(ctx); n != 8*12*12 {
		t.Errorf("expected %d keys, got %d", 8*12*12, n)
	}
	time.Sleep(5 * time.Millisecond)
	if err := store.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}
