package routes

import (
	"github.com/vishu-panwar/gharbazaar.in-sub008/services"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
)

var favoritesReconciler *services.FavoritesReconciler

const deviceIDHeader = "X-Device-ID"

// GetFavorites returns the authenticated user's favorite property IDs.
// If the device still holds a guest set (X-Device-ID), it is merged into the
// server set once and the guest set is cleared — this is the login
// reconciliation path.
func GetFavorites(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	deviceID := ctx.GetHeader(deviceIDHeader)

	set, err := favoritesReconciler.Load(ctx.Request().Context(), &userID, deviceID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"favorites": set.IDs()})
}

// GetGuestFavorites returns the guest device's favorite set. Unknown or
// unreadable devices read as empty.
func GetGuestFavorites(ctx iris.Context) {
	deviceID := ctx.GetHeader(deviceIDHeader)
	if deviceID == "" {
		utils.JSONError(ctx, iris.StatusBadRequest, "missing_device", "X-Device-ID header is required for guest favorites.")
		return
	}

	set, err := favoritesReconciler.Load(ctx.Request().Context(), nil, deviceID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"favorites": set.IDs()})
}

// ToggleFavorite flips membership for the authenticated user and returns the
// new membership state.
func ToggleFavorite(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	toggleFavorite(ctx, &userID, "")
}

// ToggleGuestFavorite flips membership in the guest device's set.
func ToggleGuestFavorite(ctx iris.Context) {
	deviceID := ctx.GetHeader(deviceIDHeader)
	if deviceID == "" {
		utils.JSONError(ctx, iris.StatusBadRequest, "missing_device", "X-Device-ID header is required for guest favorites.")
		return
	}
	toggleFavorite(ctx, nil, deviceID)
}

func toggleFavorite(ctx iris.Context, userID *uint, deviceID string) {
	var payload ToggleFavoriteInput
	if err := ctx.ReadJSON(&payload); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reqCtx := ctx.Request().Context()
	set, err := favoritesReconciler.Load(reqCtx, userID, deviceID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	nowFavorite, err := favoritesReconciler.Toggle(reqCtx, set, payload.PropertyID, userID, deviceID)
	if err != nil {
		utils.JSONError(ctx, iris.StatusServiceUnavailable, "toggle_failed", "Could not save the change, please retry.")
		return
	}

	ctx.JSON(iris.Map{"propertyID": payload.PropertyID, "favorite": nowFavorite})
}

// SyncFavorites merges a list of locally stored property IDs into the user's
// server-side set and returns the union. Safe to call repeatedly.
func SyncFavorites(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var payload SyncFavoritesInput
	if err := ctx.ReadJSON(&payload); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	merged, err := favoritesReconciler.Sync(ctx.Request().Context(), userID, payload.PropertyIDs)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"favorites": merged})
}

type ToggleFavoriteInput struct {
	PropertyID uint `json:"propertyID" validate:"required"`
}

type SyncFavoritesInput struct {
	PropertyIDs []uint `json:"propertyIDs"`
}
