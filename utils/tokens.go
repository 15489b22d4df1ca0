package utils

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

var bgContext = context.Background()

// AccessToken is the claims payload of the short-lived access token.
type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
}

type RefreshTokenInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ForgotPasswordToken struct {
	ID    uint   `json:"ID"`
	Email string `json:"email"`
}

func CreateForgotPasswordToken(id uint, email string) (string, error) {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("EMAIL_TOKEN_SECRET"), 10*time.Minute)

	claims := ForgotPasswordToken{
		ID:    id,
		Email: email,
	}

	token, err := signer.Sign(claims)
	if err != nil {
		return "", err
	}

	return string(token), nil
}

func CreateTokenPair(id uint) (*jwt.TokenPair, error) {
	accessTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 24*time.Hour)
	refreshTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("REFRESH_TOKEN_SECRET"), 365*24*time.Hour)

	userID := strconv.FormatUint(uint64(id), 10)

	refreshClaims := jwt.Claims{Subject: userID}

	// Load role for embedding into the access token
	var u models.User
	role := "user"
	if err := storage.DB.Select("id, role").First(&u, id).Error; err == nil && u.Role != "" {
		role = u.Role
	}

	accessTokenClaims := AccessToken{
		ID:   id,
		Role: role,
	}

	accessToken, err := accessTokenSigner.Sign(accessTokenClaims)
	if err != nil {
		return nil, err
	}

	refreshToken, err := refreshTokenSigner.Sign(refreshClaims)
	if err != nil {
		return nil, err
	}

	var tokenPair jwt.TokenPair
	tokenPair.AccessToken = accessToken
	tokenPair.RefreshToken = refreshToken

	// Refresh tokens are only valid while present in the allowlist.
	storage.Redis.Set(bgContext, string(refreshToken), "true", 365*24*time.Hour+5*time.Minute)

	return &tokenPair, nil
}

func RefreshToken(ctx iris.Context) {
	token := jwt.GetVerifiedToken(ctx)
	tokenStr := string(token.Token)
	validToken, tokenErr := storage.Redis.Get(bgContext, tokenStr).Result()

	if tokenErr != nil {
		CreateNotFound(ctx)
		return
	}

	if validToken != "true" {
		CreateNotFound(ctx)
		return
	}

	userID, parseErr := strconv.ParseUint(token.StandardClaims.Subject, 10, 32)
	if parseErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	tokenPair, tokenPairErr := CreateTokenPair(uint(userID))
	if tokenPairErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	// Rotate: the old refresh token can no longer be replayed.
	storage.Redis.Del(bgContext, tokenStr)

	ctx.JSON(iris.Map{
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}
