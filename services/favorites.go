package services

import (
	"context"
	"log"
	"sort"
	"strconv"
)

// FavoritesStore is a keyed set of property IDs. The remote implementation
// keys by user ID, the guest implementation by device ID.
type FavoritesStore interface {
	Load(ctx context.Context, key string) ([]uint, error)
	Save(ctx context.Context, key string, ids []uint) error
	Clear(ctx context.Context, key string) error
}

// FavoriteSet is the in-memory membership view handed to callers.
type FavoriteSet map[uint]struct{}

func NewFavoriteSet(ids []uint) FavoriteSet {
	set := make(FavoriteSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s FavoriteSet) Contains(propertyID uint) bool {
	_, ok := s[propertyID]
	return ok
}

// IDs returns the members in ascending order for stable responses.
func (s FavoriteSet) IDs() []uint {
	ids := make([]uint, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FavoritesReconciler merges a guest device's saved properties into the
// user's server-side set exactly once at login, and keeps a single toggle
// path for both session kinds.
type FavoritesReconciler struct {
	remote FavoritesStore
	guest  FavoritesStore
}

func NewFavoritesReconciler(remote, guest FavoritesStore) *FavoritesReconciler {
	return &FavoritesReconciler{remote: remote, guest: guest}
}

func userKey(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// Load returns the favorite set for the session. Guests read their device
// set; an unreadable or absent set is simply empty. For an authenticated user
// with a leftover guest set, the two are unioned, written through to the
// server, and the guest key is cleared — after that the server is the sole
// source of truth for the session. A remote outage degrades to the guest set
// instead of failing the read.
func (r *FavoritesReconciler) Load(ctx context.Context, userID *uint, deviceID string) (FavoriteSet, error) {
	if userID == nil {
		return r.loadGuest(ctx, deviceID), nil
	}

	guestSet := r.loadGuest(ctx, deviceID)

	remoteIDs, err := r.remote.Load(ctx, userKey(*userID))
	if err != nil {
		log.Printf("favorites: remote load failed for user %d, serving guest set: %v", *userID, err)
		return guestSet, nil
	}
	remoteSet := NewFavoriteSet(remoteIDs)

	if len(guestSet) == 0 {
		return remoteSet, nil
	}

	merged := union(remoteSet, guestSet)
	if err := r.remote.Save(ctx, userKey(*userID), merged.IDs()); err != nil {
		return nil, err
	}
	// Only drop the guest set once the union is safely on the server.
	if deviceID != "" {
		if err := r.guest.Clear(ctx, deviceID); err != nil {
			log.Printf("favorites: failed to clear guest set for device %s: %v", deviceID, err)
		}
	}
	return merged, nil
}

func (r *FavoritesReconciler) loadGuest(ctx context.Context, deviceID string) FavoriteSet {
	if deviceID == "" {
		return FavoriteSet{}
	}
	ids, err := r.guest.Load(ctx, deviceID)
	if err != nil {
		log.Printf("favorites: guest load failed for device %s: %v", deviceID, err)
		return FavoriteSet{}
	}
	return NewFavoriteSet(ids)
}

// Toggle flips membership in the caller's set first so the UI can reflect it
// immediately, then persists. If the authenticated write fails, the flip is
// reverted before the error is returned.
func (r *FavoritesReconciler) Toggle(ctx context.Context, set FavoriteSet, propertyID uint, userID *uint, deviceID string) (bool, error) {
	wasFavorite := set.Contains(propertyID)
	if wasFavorite {
		delete(set, propertyID)
	} else {
		set[propertyID] = struct{}{}
	}
	nowFavorite := !wasFavorite

	var err error
	if userID != nil {
		err = r.remote.Save(ctx, userKey(*userID), set.IDs())
	} else {
		err = r.guest.Save(ctx, deviceID, set.IDs())
	}
	if err != nil {
		// Roll the optimistic flip back so the set matches what persisted.
		if wasFavorite {
			set[propertyID] = struct{}{}
		} else {
			delete(set, propertyID)
		}
		return wasFavorite, err
	}

	return nowFavorite, nil
}

// Sync unions the provided local IDs into the user's server set and returns
// the merged membership. Running it again with the same input is a no-op.
func (r *FavoritesReconciler) Sync(ctx context.Context, userID uint, localIDs []uint) ([]uint, error) {
	remoteIDs, err := r.remote.Load(ctx, userKey(userID))
	if err != nil {
		return nil, err
	}

	merged := union(NewFavoriteSet(remoteIDs), NewFavoriteSet(localIDs))
	if err := r.remote.Save(ctx, userKey(userID), merged.IDs()); err != nil {
		return nil, err
	}
	return merged.IDs(), nil
}

func union(a, b FavoriteSet) FavoriteSet {
	merged := make(FavoriteSet, len(a)+len(b))
	for id := range a {
		merged[id] = struct{}{}
	}
	for id := range b {
		merged[id] = struct{}{}
	}
	return merged
}
