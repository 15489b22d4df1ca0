package routes

import (
	"strconv"
	"strings"
	"time"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/services"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
)

// SubmitVerification records a KYC submission: document images go to media
// storage, the user flips to pending review.
func SubmitVerification(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input VerificationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.DocumentType == "" || input.DocumentImage == "" || input.SelfieImage == "" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "All verification fields are required"})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"message": "User not found"})
		return
	}

	userPath := strconv.FormatUint(uint64(user.ID), 10)

	documentURL := input.DocumentImage
	if !strings.Contains(documentURL, "res.cloudinary.com") {
		if url := storage.UploadBase64Image(documentURL, "verification/"+userPath+"/document"); url != "" {
			documentURL = url
		}
	}

	selfieURL := input.SelfieImage
	if !strings.Contains(selfieURL, "res.cloudinary.com") {
		if url := storage.UploadBase64Image(selfieURL, "verification/"+userPath+"/selfie"); url != "" {
			selfieURL = url
		}
	}

	verification := models.IdentityVerification{
		UserID:       user.ID,
		DocumentType: input.DocumentType,
		DocumentURL:  documentURL,
		SelfieURL:    selfieURL,
		Status:       "pending",
	}
	if err := storage.DB.Create(&verification).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to save verification data"})
		return
	}

	if err := storage.DB.Model(&user).Updates(map[string]interface{}{
		"verification_status": "pending",
		"is_verified":         false,
	}).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to update verification status"})
		return
	}

	ctx.JSON(iris.Map{
		"message":      "Verification submitted successfully",
		"verification": verification,
	})
}

// GetVerificationStatus returns the user's latest KYC submission.
func GetVerificationStatus(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var verification models.IdentityVerification
	err := storage.DB.Where("user_id = ?", userID).Order("created_at DESC").First(&verification).Error
	if err != nil {
		ctx.JSON(iris.Map{"status": "unverified"})
		return
	}

	ctx.JSON(iris.Map{
		"status":       verification.Status,
		"verification": verification,
	})
}

// ReviewVerification lets an admin or legal partner approve or reject a KYC
// submission. The decision is audited and the user is notified.
func ReviewVerification(ctx iris.Context) {
	reviewerID := ctx.Values().Get("userID").(uint)
	verificationID, _ := strconv.ParseUint(ctx.Params().Get("id"), 10, 32)

	var input ReviewVerificationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Decision != "verified" && input.Decision != "rejected" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"error": "Decision must be 'verified' or 'rejected'"})
		return
	}

	var verification models.IdentityVerification
	if err := storage.DB.First(&verification, verificationID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if verification.Status != "pending" {
		ctx.StatusCode(iris.StatusConflict)
		ctx.JSON(iris.Map{"error": "Verification has already been reviewed"})
		return
	}

	before := verification

	now := time.Now()
	verification.Status = input.Decision
	verification.ReviewedBy = &reviewerID
	verification.ReviewedAt = &now
	verification.Notes = input.Notes

	if err := storage.DB.Save(&verification).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	isVerified := input.Decision == "verified"
	if err := storage.DB.Model(&models.User{}).Where("id = ?", verification.UserID).Updates(map[string]interface{}{
		"verification_status": input.Decision,
		"is_verified":         isVerified,
	}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "kyc_review", "identity_verification", verification.ID, before, verification)

	title := "Identity verified"
	body := "Your identity verification has been approved. You can now publish listings."
	if !isVerified {
		title = "Verification rejected"
		body = "Your identity verification was rejected. " + input.Notes
	}
	go services.NewNotificationService().SendToUser(verification.UserID, title, body, "kyc_decision", "verification", verification.ID)

	ctx.JSON(iris.Map{"verification": verification, "ok": true})
}

// GetPendingVerifications lists the KYC review queue.
func GetPendingVerifications(ctx iris.Context) {
	var verifications []models.IdentityVerification
	if err := storage.DB.Where("status = ?", "pending").Order("created_at ASC").Find(&verifications).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"verifications": verifications})
}

type VerificationInput struct {
	DocumentType  string `json:"documentType"` // aadhaar, pan, passport, driving_license
	DocumentImage string `json:"documentImage"`
	SelfieImage   string `json:"selfieImage"`
}

type ReviewVerificationInput struct {
	Decision string `json:"decision" validate:"required"`
	Notes    string `json:"notes"`
}
