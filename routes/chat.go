package routes

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/services"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// CreateConversation starts (or returns) the thread between the authenticated
// buyer and a property's seller.
func CreateConversation(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var req CreateConversationInput
	if err := ctx.ReadJSON(&req); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, req.PropertyID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if property.SellerID == userID {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"error": "Cannot start a conversation on your own listing"})
		return
	}

	var conversation models.Conversation
	existing := storage.DB.Where("property_id = ? AND buyer_id = ?", property.ID, userID).Limit(1).Find(&conversation)
	if existing.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if existing.RowsAffected == 0 {
		conversation = models.Conversation{
			PropertyID: property.ID,
			BuyerID:    userID,
			SellerID:   property.SellerID,
		}
		if err := storage.DB.Create(&conversation).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"conversation": conversation})
}

// GetMyConversations lists the user's threads on both sides of the table.
func GetMyConversations(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var conversations []models.Conversation
	if err := storage.DB.Preload("Property").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	resp := make([]iris.Map, 0, len(conversations))
	for _, c := range conversations {
		var unread int64
		storage.DB.Model(&models.Message{}).
			Where("conversation_id = ? AND receiver_id = ? AND state <> ?", c.ID, userID, "seen").
			Count(&unread)
		resp = append(resp, iris.Map{
			"conversation": c,
			"unreadCount":  unread,
		})
	}

	ctx.JSON(iris.Map{"conversations": resp})
}

// GetMessages returns the messages of a conversation the user belongs to and
// marks the other side's messages as seen.
func GetMessages(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	conversationID, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)

	conversation := conversationForParty(uint(conversationID), userID, ctx)
	if conversation == nil {
		return
	}

	var messages []models.Message
	if err := storage.DB.Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	now := time.Now()
	storage.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND state <> ?", conversation.ID, userID, "seen").
		Updates(map[string]interface{}{"state": "seen", "seen_at": now})

	ctx.JSON(iris.Map{"messages": messages})
}

// CreateMessage appends a message to a conversation and pushes it to the
// receiving party.
func CreateMessage(ctx iris.Context) {
	var req CreateMessageInput
	if err := ctx.ReadJSON(&req); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if req.SenderID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	conversation := conversationForParty(req.ConversationID, claims.ID, ctx)
	if conversation == nil {
		return
	}

	receiverID := conversation.BuyerID
	if claims.ID == conversation.BuyerID {
		receiverID = conversation.SellerID
	}

	message := models.Message{
		ConversationID:  req.ConversationID,
		SenderID:        req.SenderID,
		ReceiverID:      receiverID,
		Text:            req.Text,
		Type:            req.Type,
		RefType:         req.RefType,
		RefID:           req.RefID,
		PreviewTitle:    req.PreviewTitle,
		PreviewImageURL: req.PreviewImageURL,
		State:           "sent",
	}

	if err := storage.DB.Create(&message).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var sender models.User
	if err := storage.DB.First(&sender, req.SenderID).Error; err == nil {
		senderName := fmt.Sprintf("%s %s", sender.FirstName, sender.LastName)
		go services.NewNotificationService().SendToUser(
			receiverID,
			senderName,
			message.Text,
			"chat_message",
			"conversation",
			conversation.ID,
		)
	}

	ctx.JSON(message)
}

func conversationForParty(conversationID, userID uint, ctx iris.Context) *models.Conversation {
	var conversation models.Conversation
	if err := storage.DB.First(&conversation, conversationID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil
	}
	if conversation.BuyerID != userID && conversation.SellerID != userID {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "Access denied"})
		return nil
	}
	return &conversation
}

type CreateConversationInput struct {
	PropertyID uint `json:"propertyID" validate:"required"`
}

type CreateMessageInput struct {
	ConversationID  uint   `json:"conversationID" validate:"required"`
	SenderID        uint   `json:"senderID" validate:"required"`
	Text            string `json:"text" validate:"required,lt=5000"`
	Type            string `json:"type"`
	RefType         string `json:"refType"`
	RefID           *uint  `json:"refID"`
	PreviewTitle    string `json:"previewTitle"`
	PreviewImageURL string `json:"previewImageURL"`
}
