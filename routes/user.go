package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if userInput.PhoneNumber != "" && !utils.ValidatePhoneNumber(userInput.PhoneNumber) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid phone number format. Indian mobile numbers must be 10 digits starting with 6-9.", ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists == true {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		FirstName:   userInput.FirstName,
		LastName:    userInput.LastName,
		Email:       strings.ToLower(userInput.Email),
		PhoneNumber: utils.NormalizePhoneNumber(userInput.PhoneNumber),
		Password:    hashedPassword,
		SocialLogin: false}

	storage.DB.Create(&newUser)

	returnUser(newUser, ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid email or password."
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists == false {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	if existingUser.SocialLogin == true {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Social Login Account", ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func GoogleLoginOrSignUp(ctx iris.Context) {
	var userInput GoogleUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	endpoint := "https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + userInput.AccessToken
	res, googleErr := http.Get(endpoint)
	if googleErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	defer res.Body.Close()
	body, bodyErr := io.ReadAll(res.Body)
	if bodyErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var googleBody GoogleUserRes
	if err := json.Unmarshal(body, &googleBody); err != nil || googleBody.Email == "" {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid Google access token.", ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, googleBody.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists == false {
		user = models.User{FirstName: googleBody.GivenName, LastName: googleBody.FamilyName, Email: strings.ToLower(googleBody.Email), SocialLogin: true, SocialProvider: "Google"}
		storage.DB.Create(&user)

		returnUser(user, ctx)
		return
	}

	if user.SocialLogin == true && user.SocialProvider == "Google" {
		returnUser(user, ctx)
		return
	}

	utils.CreateEmailAlreadyRegistered(ctx)
}

func AppleLoginOrSignUp(ctx iris.Context) {
	var userInput AppleUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	res, httpErr := http.Get("https://appleid.apple.com/auth/keys")
	if httpErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	defer res.Body.Close()

	body, bodyErr := io.ReadAll(res.Body)
	if bodyErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// keyfunc selects the JWKS key matching the token's kid
	jwks, jwksErr := keyfunc.NewJSON(body)
	token, tokenErr := jwt.Parse(userInput.IdentityToken, jwks.Keyfunc)

	if jwksErr != nil || tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !token.Valid {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid user token.", ctx)
		return
	}

	email := fmt.Sprint(token.Claims.(jwt.MapClaims)["email"])
	if email == "" {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid user token.", ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists == false {
		user = models.User{FirstName: "", LastName: "", Email: strings.ToLower(email), SocialLogin: true, SocialProvider: "Apple"}
		storage.DB.Create(&user)

		returnUser(user, ctx)
		return
	}

	if user.SocialLogin == true && user.SocialProvider == "Apple" {
		returnUser(user, ctx)
		return
	}

	utils.CreateEmailAlreadyRegistered(ctx)
}

func ForgotPassword(ctx iris.Context) {
	var emailInput EmailRegisteredInput
	err := ctx.ReadJSON(&emailInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, emailInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Respond the same whether or not the account exists.
	if userExists == false {
		ctx.JSON(iris.Map{"emailSent": true})
		return
	}

	if user.SocialLogin {
		utils.CreateError(iris.StatusConflict, "Conflict", "Social Login Account", ctx)
		return
	}

	resetToken, tokenErr := utils.CreateForgotPasswordToken(user.ID, user.Email)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	emailSent := utils.SendPasswordResetEmail(user.Email, resetToken)
	ctx.JSON(iris.Map{"emailSent": emailSent})
}

func ResetPassword(ctx iris.Context) {
	var password ResetPasswordInput
	err := ctx.ReadJSON(&password)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(password.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	claims := jsonWT.Get(ctx).(*utils.ForgotPasswordToken)

	var user models.User
	storage.DB.Model(&user).Where("id = ?", claims.ID).Update("password", hashedPassword)

	ctx.JSON(iris.Map{
		"passwordReset": true,
	})
}

func GetUser(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	ctx.JSON(user)
}

func AlterPushToken(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var req AlterPushTokenInput
	err := ctx.ReadJSON(&req)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var unMarshalledTokens []string
	var pushTokens []string

	if user.PushTokens != nil {
		unmarshalErr := json.Unmarshal(user.PushTokens, &unMarshalledTokens)

		if unmarshalErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	if req.Op == "add" {
		if !slices.Contains(unMarshalledTokens, req.Token) {
			pushTokens = append(unMarshalledTokens, req.Token)
		} else {
			pushTokens = unMarshalledTokens
		}
	} else if req.Op == "replace" {
		pushTokens = []string{req.Token}
	} else if req.Op == "remove" && len(unMarshalledTokens) > 0 {
		for _, token := range unMarshalledTokens {
			if req.Token != token {
				pushTokens = append(pushTokens, token)
			}
		}
	}

	marshalledTokens, marshalErr := json.Marshal(pushTokens)

	if marshalErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	user.PushTokens = marshalledTokens

	rowsUpdated := storage.DB.Model(&user).Updates(user)

	if rowsUpdated.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func AllowsNotifications(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var req AllowsNotificationsInput
	err := ctx.ReadJSON(&req)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{"allows_notifications": req.AllowsNotifications}
	// Disabling notifications invalidates the stored push tokens too.
	if req.AllowsNotifications != nil && !*req.AllowsNotifications {
		updates["push_tokens"] = nil
	}

	if err := storage.DB.Model(&user).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	userExists := userExistsQuery.RowsAffected > 0

	if userExists == true {
		return true, nil
	}

	return false, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func getUserByID(id string, ctx iris.Context) *models.User {
	var user models.User
	userExists := storage.DB.Where("id = ?", id).Find(&user)

	if userExists.Error != nil {
		if userExists.Error == gorm.ErrRecordNotFound {
			utils.CreateNotFound(ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}

	if userExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return nil
	}

	return &user
}

func returnUser(user models.User, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":                  user.ID,
		"firstName":           user.FirstName,
		"lastName":            user.LastName,
		"email":               user.Email,
		"phoneNumber":         user.PhoneNumber,
		"role":                user.Role,
		"verificationStatus":  user.VerificationStatus,
		"savedProperties":     user.SavedProperties,
		"allowsNotifications": user.AllowsNotifications,
		"accessToken":         string(tokenPair.AccessToken),
		"refreshToken":        string(tokenPair.RefreshToken),
	})
}

type RegisterUserInput struct {
	FirstName   string `json:"firstName" validate:"required,max=256"`
	LastName    string `json:"lastName" validate:"required,max=256"`
	Email       string `json:"email" validate:"required,max=256,email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleUserInput struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

type GoogleUserRes struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

type AppleUserInput struct {
	IdentityToken string `json:"identityToken" validate:"required"`
}

type EmailRegisteredInput struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type AlterPushTokenInput struct {
	Token string `json:"token" validate:"required"`
	Op    string `json:"op" validate:"required"`
}

type AllowsNotificationsInput struct {
	AllowsNotifications *bool `json:"allowsNotifications" validate:"required"`
}
