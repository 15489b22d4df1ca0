package routes

import (
	"net/http"
	"strings"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
)

// ListUsers - GET /admin/users?role=&q=&page=&per_page=
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	var users []models.User
	q := strings.TrimSpace(ctx.URLParamDefault("q", ""))
	role := strings.TrimSpace(ctx.URLParamDefault("role", ""))

	query := storage.DB.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)
	query = query.Offset((page - 1) * perPage).Limit(perPage)
	if err := query.Find(&users).Error; err != nil {
		ctx.StatusCode(http.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "server_error", "message": err.Error()})
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// Change role - PATCH /admin/users/:id/role
func AdminChangeUserRole(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	validRoles := []string{"user", "admin", "employee", "ground_partner", "legal_partner", "service_partner"}
	if err := ctx.ReadJSON(&body); err != nil || !slices.Contains(validRoles, body.Role) {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "role must be one of user/admin/employee/ground_partner/legal_partner/service_partner")
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "user not found")
		return
	}

	before := user
	user.Role = body.Role
	if err := storage.DB.Save(&user).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.Audit(ctx, "change_role", "user", user.ID, before, user)

	ctx.JSON(iris.Map{"data": user})
}

// AdminListProperties - GET /admin/properties?status=&flagged=
func AdminListProperties(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Property{})
	if status := ctx.URLParamDefault("status", ""); status != "" {
		query = query.Where("status = ?", status)
	}
	if flagged, err := ctx.URLParamBool("flagged"); err == nil && flagged {
		query = query.Where("is_flagged = ?", true)
	}

	var total int64
	query.Count(&total)

	var properties []models.Property
	if err := query.Preload("Seller").
		Offset((page - 1) * perPage).Limit(perPage).
		Order("created_at DESC").
		Find(&properties).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, properties, page, perPage, total)
}

// AdminFlagProperty - POST /admin/properties/:id/flag { flagged, reason }
func AdminFlagProperty(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var body struct {
		Flagged bool   `json:"flagged"`
		Reason  string `json:"reason"`
	}
	if err := ctx.ReadJSON(&body); err != nil {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "invalid payload")
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "property not found")
		return
	}

	before := property
	property.IsFlagged = body.Flagged
	property.FlagReason = body.Reason
	if err := storage.DB.Save(&property).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.Audit(ctx, "flag_property", "property", property.ID, before, property)

	ctx.JSON(iris.Map{"data": &property})
}

// AdminListOffers - GET /admin/offers?status= — marketplace-wide negotiation view
func AdminListOffers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Offer{})
	if status := ctx.URLParamDefault("status", ""); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var offers []models.Offer
	if err := query.Preload("Property").Preload("Buyer").
		Offset((page - 1) * perPage).Limit(perPage).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, offers, page, perPage, total)
}

// AdminOfferStats - GET /admin/offers/stats — aggregate negotiation funnel
func AdminOfferStats(ctx iris.Context) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := storage.DB.Model(&models.Offer{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	stats := iris.Map{}
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	ctx.JSON(iris.Map{"data": stats})
}
