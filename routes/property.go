package routes

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
)

// CreateProperty creates a draft listing for the authenticated seller.
// Images come in as base64 and are uploaded before the row is written.
func CreateProperty(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if err := utils.Validate.Struct(input); err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"error": "Validation failed", "details": err.Error()})
		return
	}

	if input.ListingPrice <= 0 {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"error": "Listing price must be greater than zero"})
		return
	}

	var imageURLs []string
	for i, image := range input.Images {
		url := storage.UploadBase64Image(image, fmt.Sprintf("property/%d/%d", userID, i))
		if url != "" {
			imageURLs = append(imageURLs, url)
		}
	}

	imagesJSON, _ := json.Marshal(imageURLs)
	amenitiesJSON, _ := json.Marshal(input.Amenities)

	property := models.Property{
		SellerID:     userID,
		Title:        input.Title,
		Description:  input.Description,
		PropertyType: input.PropertyType,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		PostalCode:   input.PostalCode,
		Lat:          input.Lat,
		Lng:          input.Lng,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		AreaSqFt:     input.AreaSqFt,
		YearBuilt:    input.YearBuilt,
		ListingPrice: input.ListingPrice,
		Currency:     "INR",
		Images:       imagesJSON,
		Amenities:    amenitiesJSON,
		Status:       "draft",
	}

	if err := storage.DB.Create(&property).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "Failed to create property"})
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"property": &property})
}

// GetProperty returns a single listing with its seller.
func GetProperty(ctx iris.Context) {
	propertyID, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)

	var property models.Property
	if err := storage.DB.Preload("Seller").First(&property, propertyID).Error; err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"error": "Property not found"})
		return
	}

	ctx.JSON(iris.Map{"property": &property})
}

// SearchProperties lists published listings with optional filters and paging.
func SearchProperties(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	q := storage.DB.Model(&models.Property{}).Where("status = ?", "published")

	if city := ctx.URLParamDefault("city", ""); city != "" {
		q = q.Where("lower(city) = lower(?)", city)
	}
	if propertyType := ctx.URLParamDefault("type", ""); propertyType != "" {
		q = q.Where("property_type = ?", propertyType)
	}
	if minPrice := ctx.URLParamInt64Default("min_price", 0); minPrice > 0 {
		q = q.Where("listing_price >= ?", minPrice)
	}
	if maxPrice := ctx.URLParamInt64Default("max_price", 0); maxPrice > 0 {
		q = q.Where("listing_price <= ?", maxPrice)
	}
	if bedrooms := ctx.URLParamIntDefault("bedrooms", 0); bedrooms > 0 {
		q = q.Where("bedrooms >= ?", bedrooms)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var properties []models.Property
	if err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&properties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, properties, page, perPage, total)
}

// GetMyProperties lists every listing owned by the authenticated seller,
// drafts included.
func GetMyProperties(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var properties []models.Property
	if err := storage.DB.Where("seller_id = ?", userID).Order("created_at DESC").Find(&properties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"properties": properties})
}

// UpdateProperty updates an owned listing's editable fields.
func UpdateProperty(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	propertyID, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)

	var property models.Property
	if err := storage.DB.Where("id = ? AND seller_id = ?", propertyID, userID).First(&property).Error; err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"error": "Property not found"})
		return
	}

	var input UpdatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if input.ListingPrice > 0 {
		updates["listing_price"] = input.ListingPrice
	}
	if input.Bedrooms > 0 {
		updates["bedrooms"] = input.Bedrooms
	}
	if input.Bathrooms > 0 {
		updates["bathrooms"] = input.Bathrooms
	}
	if input.AreaSqFt > 0 {
		updates["area_sq_ft"] = input.AreaSqFt
	}
	if input.Amenities != nil {
		amenitiesJSON, _ := json.Marshal(input.Amenities)
		updates["amenities"] = amenitiesJSON
	}

	if len(updates) > 0 {
		if err := storage.DB.Model(&property).Updates(updates).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"property": &property, "ok": true})
}

// PublishProperty moves a draft listing to published, making it visible in
// search and open for offers. Sellers must have passed KYC first.
func PublishProperty(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	propertyID, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)

	var seller models.User
	if err := storage.DB.First(&seller, userID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if seller.VerificationStatus != "verified" {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "Identity verification required before publishing"})
		return
	}

	res := storage.DB.Model(&models.Property{}).
		Where("id = ? AND seller_id = ? AND status = ?", propertyID, userID, "draft").
		Update("status", "published")
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"error": "Draft property not found"})
		return
	}

	ctx.JSON(iris.Map{"ok": true})
}

type CreatePropertyInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	PropertyType string   `json:"propertyType" validate:"required"`
	Address      string   `json:"address" validate:"required"`
	City         string   `json:"city" validate:"required"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postalCode"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	AreaSqFt     int      `json:"areaSqFt"`
	YearBuilt    int      `json:"yearBuilt"`
	ListingPrice int64    `json:"listingPrice" validate:"required"`
	Images       []string `json:"images"`
	Amenities    []string `json:"amenities"`
}

type UpdatePropertyInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ListingPrice int64    `json:"listingPrice"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	AreaSqFt     int      `json:"areaSqFt"`
	Amenities    []string `json:"amenities"`
}
