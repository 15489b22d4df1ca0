package routes

import (
	"errors"
	"strconv"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/services"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
)

var negotiationEngine *services.NegotiationEngine

// InitServices wires route handlers to their backing stores. Called from main
// after storage is initialized.
func InitServices() {
	negotiationEngine = services.NewNegotiationEngine(
		storage.NewOfferStore(storage.DB),
		services.NewNotificationService(),
	)
	favoritesReconciler = services.NewFavoritesReconciler(
		storage.NewRemoteFavoritesStore(storage.DB),
		storage.NewGuestFavoritesStore(storage.Redis),
	)
}

// CreateOffer lets an authenticated buyer place an offer on a published property.
func CreateOffer(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	propertyIDU64, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	propertyID := uint(propertyIDU64)

	var property models.Property
	if err := storage.DB.First(&property, propertyID).Error; err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"error": "Property not found"})
		return
	}
	if property.Status != "published" {
		ctx.StatusCode(iris.StatusConflict)
		ctx.JSON(iris.Map{"error": "Property is not open for offers"})
		return
	}

	var payload CreateOfferInput
	if err := ctx.ReadJSON(&payload); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	offer, err := negotiationEngine.Create(property.ID, userID, property.SellerID, payload.Amount, payload.Message)
	if err != nil {
		handleNegotiationError(err, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"offer": offer})
}

// GetMyOffers lists the authenticated buyer's offers, optionally filtered by status.
func GetMyOffers(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	status := ctx.URLParamDefault("status", "")

	offers, err := negotiationEngine.ListForBuyer(userID, status)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"offers": offers})
}

// GetReceivedOffers lists offers on the authenticated seller's properties.
func GetReceivedOffers(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	status := ctx.URLParamDefault("status", "")

	offers, err := negotiationEngine.ListForSeller(userID, status)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Lightweight rows for the seller inbox
	resp := make([]iris.Map, 0, len(offers))
	for _, o := range offers {
		fullName := ""
		if o.Buyer.FirstName != "" || o.Buyer.LastName != "" {
			fullName = o.Buyer.FirstName + " " + o.Buyer.LastName
		}
		resp = append(resp, iris.Map{
			"id":             o.ID,
			"amount":         o.Amount,
			"message":        o.Message,
			"status":         o.Status,
			"counterAmount":  o.CounterAmount,
			"counterMessage": o.CounterMessage,
			"created_at":     o.CreatedAt,
			"buyer": iris.Map{
				"id":          o.BuyerID,
				"firstName":   o.Buyer.FirstName,
				"lastName":    o.Buyer.LastName,
				"avatarURL":   o.Buyer.AvatarURL,
				"displayName": fullName,
			},
			"property": iris.Map{
				"id":    o.PropertyID,
				"title": o.Property.Title,
			},
		})
	}
	ctx.JSON(iris.Map{"offers": resp})
}

// AcceptOffer resolves the offer at the active price. The seller accepts a
// pending offer; the buyer accepts a counter.
func AcceptOffer(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	offerID := offerIDParam(ctx)

	offer, err := negotiationEngine.Accept(offerID, userID)
	if err != nil {
		handleNegotiationError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{"offer": offer, "ok": true})
}

// RejectOffer declines the offer. Same party rules as AcceptOffer.
func RejectOffer(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	offerID := offerIDParam(ctx)

	offer, err := negotiationEngine.Reject(offerID, userID)
	if err != nil {
		handleNegotiationError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{"offer": offer, "ok": true})
}

// CounterOffer lets the seller propose an alternate price on a pending offer.
func CounterOffer(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	offerID := offerIDParam(ctx)

	var payload CounterOfferInput
	if err := ctx.ReadJSON(&payload); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	offer, err := negotiationEngine.Counter(offerID, userID, payload.CounterAmount, payload.CounterMessage)
	if err != nil {
		handleNegotiationError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{"offer": offer, "ok": true})
}

// GetOffer returns a single offer to one of its parties.
func GetOffer(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	offerID := offerIDParam(ctx)

	offer, err := negotiationEngine.Get(offerID)
	if err != nil {
		handleNegotiationError(err, ctx)
		return
	}
	if offer.BuyerID != userID && offer.SellerID != userID {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "Access denied"})
		return
	}

	ctx.JSON(iris.Map{"offer": offer})
}

func offerIDParam(ctx iris.Context) uint {
	idU64, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)
	return uint(idU64)
}

func handleNegotiationError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrOfferNotFound):
		utils.JSONError(ctx, iris.StatusNotFound, "not_found", "Offer not found.")
	case errors.Is(err, services.ErrInvalidAmount):
		utils.JSONError(ctx, iris.StatusBadRequest, "invalid_amount", "Amount must be a positive value different from the original offer.")
	case errors.Is(err, services.ErrNotParty):
		utils.JSONError(ctx, iris.StatusForbidden, "forbidden", "You are not a party to this offer.")
	case errors.Is(err, services.ErrSelfOffer):
		utils.JSONError(ctx, iris.StatusBadRequest, "self_offer", "You cannot make an offer on your own property.")
	case errors.Is(err, services.ErrActiveOfferExists):
		utils.JSONError(ctx, iris.StatusConflict, "active_offer_exists", "You already have an active offer on this property.")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.JSONError(ctx, iris.StatusConflict, "already_resolved", "This offer has already been resolved.")
	default:
		utils.CreateInternalServerError(ctx)
	}
}

type CreateOfferInput struct {
	Amount  int64  `json:"amount" validate:"required"`
	Message string `json:"message"`
}

type CounterOfferInput struct {
	CounterAmount  int64  `json:"counterAmount" validate:"required"`
	CounterMessage string `json:"counterMessage"`
}
