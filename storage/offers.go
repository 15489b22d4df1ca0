package storage

import (
	"errors"
	"time"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"

	"gorm.io/gorm"
)

// GormOfferStore persists offers in Postgres. Status transitions go through
// TransitionIf so that two parties racing on the same offer can never both win.
type GormOfferStore struct {
	db *gorm.DB
}

func NewOfferStore(db *gorm.DB) *GormOfferStore {
	return &GormOfferStore{db: db}
}

func (s *GormOfferStore) Create(offer *models.Offer) error {
	return s.db.Create(offer).Error
}

func (s *GormOfferStore) Get(id uint) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.First(&offer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// HasActiveOffer reports whether the buyer already has a non-terminal offer
// on the property.
func (s *GormOfferStore) HasActiveOffer(propertyID, buyerID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Offer{}).
		Where("property_id = ? AND buyer_id = ? AND status IN ?",
			propertyID, buyerID, []string{models.OfferStatusPending, models.OfferStatusCountered}).
		Count(&count).Error
	return count > 0, err
}

func (s *GormOfferStore) ListByBuyer(buyerID uint, status string) ([]models.Offer, error) {
	return s.list("buyer_id = ?", buyerID, status)
}

func (s *GormOfferStore) ListBySeller(sellerID uint, status string) ([]models.Offer, error) {
	return s.list("seller_id = ?", sellerID, status)
}

func (s *GormOfferStore) list(cond string, id uint, status string) ([]models.Offer, error) {
	var offers []models.Offer
	q := s.db.Preload("Property").Preload("Buyer").Where(cond, id)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// TransitionIf applies updates to the offer only while its status is still one
// of from, as a single conditional UPDATE. Returns false when the row exists
// but has already moved on (or never existed) — the caller distinguishes the
// two with a follow-up Get.
func (s *GormOfferStore) TransitionIf(id uint, from []string, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()
	res := s.db.Model(&models.Offer{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
