package routes

import (
	"strconv"
	"time"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
)

// GetNotifications lists the user's in-app notifications, newest first.
func GetNotifications(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var notifications []models.Notification
	if err := storage.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var unread int64
	storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	ctx.JSON(iris.Map{"notifications": notifications, "unreadCount": unread})
}

// MarkNotificationRead marks one notification as read.
func MarkNotificationRead(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	notificationID, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)

	now := time.Now()
	res := storage.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

// MarkAllNotificationsRead marks every unread notification as read.
func MarkAllNotificationsRead(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	now := time.Now()
	if err := storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}
