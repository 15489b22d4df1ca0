package models

import (
	"time"
)

// Offer statuses. Accepted and rejected are terminal.
const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusCountered = "countered"
)

// Offer is a buyer's price proposal on a property and the negotiation
// thread around it. Amount never changes after creation; the seller
// negotiates by setting CounterAmount.
type Offer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PropertyID uint `json:"propertyID" gorm:"not null;index"`
	BuyerID    uint `json:"buyerID" gorm:"not null;index"`
	SellerID   uint `json:"sellerID" gorm:"not null;index"`

	// Amounts in the smallest currency unit (paise).
	Amount  int64  `json:"amount" gorm:"not null"`
	Message string `json:"message" gorm:"type:text"`

	Status string `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	// Populated only while Status == countered.
	CounterAmount  int64  `json:"counterAmount"`
	CounterMessage string `json:"counterMessage" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Property Property `json:"property" gorm:"foreignKey:PropertyID;references:ID"`
	Buyer    User     `json:"buyer" gorm:"foreignKey:BuyerID;references:ID"`
}

// Terminal reports whether the offer can no longer transition.
func (o *Offer) Terminal() bool {
	return o.Status == OfferStatusAccepted || o.Status == OfferStatusRejected
}
