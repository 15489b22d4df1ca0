package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a buyer<->seller thread scoped to one property.
type Conversation struct {
	gorm.Model
	PropertyID uint      `json:"propertyID" gorm:"not null;index"`
	BuyerID    uint      `json:"buyerID" gorm:"not null;index"`
	SellerID   uint      `json:"sellerID" gorm:"not null;index"`
	Messages   []Message `json:"messages" gorm:"foreignKey:ConversationID;references:ID"`

	Property Property `json:"property" gorm:"foreignKey:PropertyID;references:ID"`
}

type Message struct {
	gorm.Model
	ConversationID uint   `json:"conversationID" gorm:"index"`
	SenderID       uint   `json:"senderID"`
	ReceiverID     uint   `json:"receiverID"`
	Text           string `json:"text" gorm:"type:text"`
	// Optional typed payload for rich messages (e.g., property card)
	Type            string `json:"type" gorm:"size:32"` // text | property_card | offer_card
	RefType         string `json:"refType" gorm:"size:32"`
	RefID           *uint  `json:"refID" gorm:"index"`
	PreviewTitle    string `json:"previewTitle" gorm:"size:256"`
	PreviewImageURL string `json:"previewImageURL" gorm:"size:512"`
	// Delivery state
	State       string     `json:"state" gorm:"size:16;index"` // sent|delivered|seen
	DeliveredAt *time.Time `json:"deliveredAt"`
	SeenAt      *time.Time `json:"seenAt"`
}
