package main

import (
	"log"
	"os"

	"github.com/vishu-panwar/gharbazaar.in-sub008/routes"
	"github.com/vishu-panwar/gharbazaar.in-sub008/storage"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()
	routes.InitServices()

	app := iris.New()
	app.Validator = validator.New()

	// CORS for the web frontend
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Device-ID")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/apple", routes.AppleLoginOrSignUp)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetUser)
		user.Patch("/{id}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
		user.Patch("/{id}/settings/notifications", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsNotifications)
		user.Post("/verification", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.SubmitVerification)
		user.Get("/verification/status", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetVerificationStatus)
	}

	property := app.Party("/api/property")
	{
		property.Get("/search", routes.SearchProperties)
		property.Get("/{id:uint}", routes.GetProperty)
		property.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateProperty)
		property.Get("/mine", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetMyProperties)
		property.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateProperty)
		property.Post("/{id:uint}/publish", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.PublishProperty)
		property.Post("/{id:uint}/offers", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateOffer)
	}

	offer := app.Party("/api/offer", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		offer.Get("/mine", routes.GetMyOffers)
		offer.Get("/received", routes.GetReceivedOffers)
		offer.Get("/{id:uint}", routes.GetOffer)
		offer.Post("/{id:uint}/accept", routes.AcceptOffer)
		offer.Post("/{id:uint}/reject", routes.RejectOffer)
		offer.Post("/{id:uint}/counter", routes.CounterOffer)
	}

	favorites := app.Party("/api/favorites")
	{
		favorites.Get("/guest", routes.GetGuestFavorites)
		favorites.Post("/guest/toggle", routes.ToggleGuestFavorite)
		favorites.Get("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetFavorites)
		favorites.Post("/toggle", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.ToggleFavorite)
		favorites.Post("/sync", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.SyncFavorites)
	}

	chat := app.Party("/api/chat", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		chat.Post("/conversation", routes.CreateConversation)
		chat.Get("/conversations", routes.GetMyConversations)
		chat.Get("/conversation/{id:uint}/messages", routes.GetMessages)
		chat.Post("/message", routes.CreateMessage)
	}

	notifications := app.Party("/api/notifications", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		notifications.Get("/", routes.GetNotifications)
		notifications.Patch("/{id:uint}/read", routes.MarkNotificationRead)
		notifications.Patch("/read-all", routes.MarkAllNotificationsRead)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Patch("/users/{id:uint}/role", utils.SuperAdminOnlyMiddleware, routes.AdminChangeUserRole)
		admin.Get("/properties", routes.AdminListProperties)
		admin.Post("/properties/{id:uint}/flag", routes.AdminFlagProperty)
		admin.Get("/offers", routes.AdminListOffers)
		admin.Get("/offers/stats", routes.AdminOfferStats)
		admin.Get("/verifications", routes.GetPendingVerifications)
		admin.Post("/verifications/{id:uint}/review", routes.ReviewVerification)
	}

	// Legal partners work the KYC queue without full admin rights.
	kyc := app.Party("/api/kyc", accessTokenVerifierMiddleware, utils.RoleMiddleware("legal_partner"))
	{
		kyc.Get("/queue", routes.GetPendingVerifications)
		kyc.Post("/{id:uint}/review", routes.ReviewVerification)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Println("Starting server on port " + port)
	app.Listen(":" + port)
}
