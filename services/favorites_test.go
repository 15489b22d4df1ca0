package services

import (
	"context"
	"errors"
	"testing"
)

// memFavoritesStore is an in-memory FavoritesStore with per-operation failure
// injection for the degraded-path tests.
type memFavoritesStore struct {
	sets      map[string][]uint
	loadErr   error
	saveErr   error
	saveCalls int
}

func newMemFavoritesStore() *memFavoritesStore {
	return &memFavoritesStore{sets: make(map[string][]uint)}
}

func (s *memFavoritesStore) Load(ctx context.Context, key string) ([]uint, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]uint(nil), s.sets[key]...), nil
}

func (s *memFavoritesStore) Save(ctx context.Context, key string, ids []uint) error {
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sets[key] = append([]uint(nil), ids...)
	return nil
}

func (s *memFavoritesStore) Clear(ctx context.Context, key string) error {
	delete(s.sets, key)
	return nil
}

func uintPtr(v uint) *uint { return &v }

func assertIDs(t *testing.T, got []uint, want ...uint) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLoadGuestSession(t *testing.T) {
	remote := newMemFavoritesStore()
	guest := newMemFavoritesStore()
	guest.sets["device-1"] = []uint{3, 1}
	reconciler := NewFavoritesReconciler(remote, guest)

	set, err := reconciler.Load(context.Background(), nil, "device-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	assertIDs(t, set.IDs(), 1, 3)

	// A guest without a device ID simply has no favorites.
	set, err = reconciler.Load(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set.IDs())
	}
}

func TestLoginMergesGuestSetOnce(t *testing.T) {
	remote := newMemFavoritesStore()
	guest := newMemFavoritesStore()
	remote.sets["42"] = []uint{2, 3}
	guest.sets["device-1"] = []uint{1, 2}
	reconciler := NewFavoritesReconciler(remote, guest)

	set, err := reconciler.Load(context.Background(), uintPtr(42), "device-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	assertIDs(t, set.IDs(), 1, 2, 3)
	assertIDs(t, remote.sets["42"], 1, 2, 3)

	if _, ok := guest.sets["device-1"]; ok {
		t.Fatal("guest set should be cleared after the merge")
	}

	// Second load is served from the server alone and does not write.
	saves := remote.saveCalls
	set, err = reconciler.Load(context.Background(), uintPtr(42), "device-1")
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	assertIDs(t, set.IDs(), 1, 2, 3)
	if remote.saveCalls != saves {
		t.Fatalf("second load wrote to remote %d extra times", remote.saveCalls-saves)
	}
}

func TestLoginMergeKeepsGuestSetOnSaveFailure(t *testing.T) {
	remote := newMemFavoritesStore()
	guest := newMemFavoritesStore()
	remote.sets["42"] = []uint{2}
	guest.sets["device-1"] = []uint{1}
	remote.saveErr = errors.New("connection refused")
	reconciler := NewFavoritesReconciler(remote, guest)

	if _, err := reconciler.Load(context.Background(), uintPtr(42), "device-1"); err == nil {
		t.Fatal("expected error when the merge cannot be persisted")
	}
	if _, ok := guest.sets["device-1"]; !ok {
		t.Fatal("guest set must survive until the union is on the server")
	}
}

func TestLoadDegradesToGuestOnRemoteOutage(t *testing.T) {
	remote := newMemFavoritesStore()
	guest := newMemFavoritesStore()
	remote.loadErr = errors.New("connection refused")
	guest.sets["device-1"] = []uint{7}
	reconciler := NewFavoritesReconciler(remote, guest)

	set, err := reconciler.Load(context.Background(), uintPtr(42), "device-1")
	if err != nil {
		t.Fatalf("degraded load should not fail: %v", err)
	}
	assertIDs(t, set.IDs(), 7)
}

func TestSyncIdempotent(t *testing.T) {
	remote := newMemFavoritesStore()
	reconciler := NewFavoritesReconciler(remote, newMemFavoritesStore())
	remote.sets["42"] = []uint{2, 3}

	merged, err := reconciler.Sync(context.Background(), 42, []uint{1, 2})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	assertIDs(t, merged, 1, 2, 3)

	merged, err = reconciler.Sync(context.Background(), 42, []uint{1, 2})
	if err != nil {
		t.Fatalf("repeat sync failed: %v", err)
	}
	assertIDs(t, merged, 1, 2, 3)
	assertIDs(t, remote.sets["42"], 1, 2, 3)
}

func TestToggle(t *testing.T) {
	remote := newMemFavoritesStore()
	guest := newMemFavoritesStore()
	reconciler := NewFavoritesReconciler(remote, guest)

	set := NewFavoriteSet(nil)
	nowFavorite, err := reconciler.Toggle(context.Background(), set, 5, uintPtr(42), "")
	if err != nil {
		t.Fatalf("toggle on failed: %v", err)
	}
	if !nowFavorite || !set.Contains(5) {
		t.Fatal("expected property 5 to become a favorite")
	}
	assertIDs(t, remote.sets["42"], 5)

	nowFavorite, err = reconciler.Toggle(context.Background(), set, 5, uintPtr(42), "")
	if err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	if nowFavorite || set.Contains(5) {
		t.Fatal("expected property 5 to be removed")
	}
	assertIDs(t, remote.sets["42"])

	// Guest toggles persist against the device key.
	guestSet := NewFavoriteSet(nil)
	if _, err := reconciler.Toggle(context.Background(), guestSet, 9, nil, "device-1"); err != nil {
		t.Fatalf("guest toggle failed: %v", err)
	}
	assertIDs(t, guest.sets["device-1"], 9)
}

func TestToggleRollsBackOnSaveFailure(t *testing.T) {
	remote := newMemFavoritesStore()
	remote.sets["42"] = []uint{5}
	reconciler := NewFavoritesReconciler(remote, newMemFavoritesStore())

	set := NewFavoriteSet([]uint{5})
	remote.saveErr = errors.New("connection refused")

	nowFavorite, err := reconciler.Toggle(context.Background(), set, 5, uintPtr(42), "")
	if err == nil {
		t.Fatal("expected toggle to report the save failure")
	}
	// The in-memory flip is reverted so the caller's view matches the server.
	if !nowFavorite || !set.Contains(5) {
		t.Fatal("failed toggle must leave membership unchanged")
	}
	assertIDs(t, remote.sets["42"], 5)

	// Adding a new favorite rolls back the same way.
	nowFavorite, err = reconciler.Toggle(context.Background(), set, 8, uintPtr(42), "")
	if err == nil {
		t.Fatal("expected toggle to report the save failure")
	}
	if nowFavorite || set.Contains(8) {
		t.Fatal("failed toggle must leave membership unchanged")
	}
}
