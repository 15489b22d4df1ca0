package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	SellerID     uint    `json:"sellerID" gorm:"index"`
	Title        string  `json:"title"`
	Description  string  `json:"description" gorm:"type:text"`
	PropertyType string  `json:"propertyType" gorm:"type:varchar(30);index"` // flat, house, plot, commercial
	Address      string  `json:"address"`
	City         string  `json:"city" gorm:"index"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	AreaSqFt     int     `json:"areaSqFt"`
	YearBuilt    int     `json:"yearBuilt"`

	// Asking price in the smallest currency unit (paise).
	ListingPrice int64  `json:"listingPrice"`
	Currency     string `json:"currency" gorm:"type:varchar(8);default:'INR'"`

	Images    datatypes.JSON `json:"images"`
	Amenities datatypes.JSON `json:"amenities"`

	// draft, published, sold, archived
	Status      string `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	IsVerified  bool   `json:"isVerified" gorm:"default:false"`
	IsFlagged   bool   `json:"isFlagged" gorm:"default:false;index"`
	FlagReason  string `json:"flagReason" gorm:"type:text"`
	ReviewNotes string `json:"reviewNotes" gorm:"type:text"`

	Seller User `json:"seller" gorm:"foreignKey:SellerID;references:ID"`
}

// MarshalJSON converts the JSON columns to arrays and avoids a circular
// seller -> properties -> seller reference.
func (p *Property) MarshalJSON() ([]byte, error) {
	type Alias Property
	aux := &struct {
		Images    []string `json:"images"`
		Amenities []string `json:"amenities"`
		Seller    *User    `json:"seller,omitempty"`
		*Alias
	}{
		Images:    []string{},
		Amenities: []string{},
		Alias:     (*Alias)(p),
	}

	if p.Images != nil {
		var images []string
		if err := json.Unmarshal(p.Images, &images); err == nil {
			aux.Images = images
		}
	}

	if p.Amenities != nil {
		var amenities []string
		if err := json.Unmarshal(p.Amenities, &amenities); err == nil {
			aux.Amenities = amenities
		}
	}

	if p.Seller.ID > 0 {
		sellerCopy := p.Seller
		sellerCopy.Properties = nil
		aux.Seller = &sellerCopy
	}

	return json.Marshal(aux)
}
