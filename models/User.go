package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	PhoneNumber         string         `json:"phoneNumber" gorm:"index"`
	Password            string         `json:"password"`
	SocialLogin         bool           `json:"socialLogin"`
	SocialProvider      string         `json:"socialProvider"`
	AvatarURL           string         `json:"avatarURL"`
	Properties          []Property     `json:"properties" gorm:"foreignKey:SellerID;references:ID"`
	SavedProperties     datatypes.JSON `json:"savedProperties"`
	PushTokens          datatypes.JSON `json:"pushTokens"`
	AllowsNotifications *bool          `json:"allowsNotifications"`

	// KYC
	IsVerified         *bool  `json:"isVerified"`
	VerificationStatus string `json:"verificationStatus" gorm:"type:varchar(20);default:'unverified';index"` // unverified, pending, verified, rejected

	// user, admin, super_admin, employee, ground_partner, legal_partner, service_partner
	Role string `json:"role" gorm:"type:varchar(20);default:user;index"`
}

// MarshalJSON flattens the JSON columns into arrays and hides the password hash.
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		Password        string `json:"password,omitempty"`
		SavedProperties []uint `json:"savedProperties"`
		PushTokens      []string `json:"pushTokens,omitempty"`
		*Alias
	}{
		SavedProperties: []uint{},
		Alias:           (*Alias)(u),
	}

	if u.SavedProperties != nil {
		var saved []uint
		if err := json.Unmarshal(u.SavedProperties, &saved); err == nil {
			aux.SavedProperties = saved
		}
	}

	if u.PushTokens != nil {
		var tokens []string
		if err := json.Unmarshal(u.PushTokens, &tokens); err == nil {
			aux.PushTokens = tokens
		}
	}

	return json.Marshal(aux)
}
