package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Guest favorite sets expire on their own if the device never logs in.
const guestFavoritesTTL = 90 * 24 * time.Hour

// RemoteFavoritesStore keeps the authenticated user's saved properties as a
// JSON array on the user row. The key is the user ID in decimal.
type RemoteFavoritesStore struct {
	db *gorm.DB
}

func NewRemoteFavoritesStore(db *gorm.DB) *RemoteFavoritesStore {
	return &RemoteFavoritesStore{db: db}
}

func (s *RemoteFavoritesStore) Load(ctx context.Context, key string) ([]uint, error) {
	userID, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id, saved_properties").First(&user, uint(userID)).Error; err != nil {
		return nil, err
	}

	if user.SavedProperties == nil {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(user.SavedProperties, &ids); err != nil {
		// A corrupt column reads as empty rather than wedging the account.
		return nil, nil
	}
	return ids, nil
}

func (s *RemoteFavoritesStore) Save(ctx context.Context, key string, ids []uint) error {
	userID, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return err
	}

	if ids == nil {
		ids = []uint{}
	}
	marshalled, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", uint(userID)).
		Update("saved_properties", marshalled).Error
}

func (s *RemoteFavoritesStore) Clear(ctx context.Context, key string) error {
	return s.Save(ctx, key, []uint{})
}

// GuestFavoritesStore keeps a guest device's favorites in Redis under a single
// key holding a JSON array of property IDs.
type GuestFavoritesStore struct {
	client *redis.Client
}

func NewGuestFavoritesStore(client *redis.Client) *GuestFavoritesStore {
	return &GuestFavoritesStore{client: client}
}

func guestFavoritesKey(deviceID string) string {
	return "guest:favorites:" + deviceID
}

func (s *GuestFavoritesStore) Load(ctx context.Context, key string) ([]uint, error) {
	raw, err := s.client.Get(ctx, guestFavoritesKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []uint
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, nil
	}
	return ids, nil
}

func (s *GuestFavoritesStore) Save(ctx context.Context, key string, ids []uint) error {
	if ids == nil {
		ids = []uint{}
	}
	marshalled, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, guestFavoritesKey(key), string(marshalled), guestFavoritesTTL).Err()
}

func (s *GuestFavoritesStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, guestFavoritesKey(key)).Err()
}
