package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

// NotificationService persists in-app notifications and pushes them to the
// user's registered devices. It implements OfferNotifier for the negotiation
// engine; everything here is best-effort.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOfferEvent fans a negotiation event out to the party on the receiving
// end of the transition.
func (ns *NotificationService) NotifyOfferEvent(offer *models.Offer, event string) {
	var recipientID uint
	var title, body string

	amount := formatPaise(offer.Amount)
	switch event {
	case OfferEventCreated:
		recipientID = offer.SellerID
		title = "New offer received"
		body = fmt.Sprintf("A buyer has offered %s on your property.", amount)
	case OfferEventAccepted:
		recipientID = offer.BuyerID
		title = "Offer accepted"
		body = fmt.Sprintf("Your offer of %s has been accepted.", amount)
	case OfferEventRejected:
		recipientID = offer.BuyerID
		title = "Offer declined"
		body = fmt.Sprintf("Your offer of %s was declined.", amount)
	case OfferEventCountered:
		recipientID = offer.BuyerID
		title = "Counter offer"
		body = fmt.Sprintf("The seller countered your offer with %s.", formatPaise(offer.CounterAmount))
	default:
		return
	}

	ns.SendToUser(recipientID, title, body, event, "offer", offer.ID)
}

// SendToUser stores an in-app notification and attempts a push.
func (ns *NotificationService) SendToUser(userID uint, title, body, notifType, refType string, refID uint) {
	notification := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: body,
		RefType: refType,
		RefID:   refID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("notifications: failed to persist notification for user %d: %v", userID, err)
	}

	tokens, err := ns.userPushTokens(userID)
	if err != nil {
		return
	}
	for _, token := range tokens {
		if err := sendExpoPush(token, title, body, map[string]string{
			"type":    notifType,
			"refType": refType,
			"refID":   fmt.Sprint(refID),
		}); err != nil {
			log.Printf("notifications: push to token %s failed: %v", token, err)
		}
	}
}

func (ns *NotificationService) userPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}
	return tokens, nil
}

func sendExpoPush(token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"to":    token,
		"title": title,
		"body":  body,
		"data":  data,
	})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	res, err := client.Post(expoPushURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push returned status %d", res.StatusCode)
	}
	return nil
}

// formatPaise renders a paise amount as rupees for notification copy.
func formatPaise(amount int64) string {
	return fmt.Sprintf("₹%d.%02d", amount/100, amount%100)
}
