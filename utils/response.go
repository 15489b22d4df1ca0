package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// Validate is the shared validator instance, also attached to the Iris app.
var Validate = validator.New()

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total},
		"links": iris.Map{},
	})
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}

func CreateError(statusCode int, title, detail string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{
		"status": statusCode,
		"title":  title,
		"detail": detail,
	})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(
		iris.StatusInternalServerError,
		"Internal Server Error",
		"An unexpected error occurred. Please try again later.",
		ctx)
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "Not Found", "Resource not found.", ctx)
}

func CreateEmailAlreadyRegistered(ctx iris.Context) {
	CreateError(
		iris.StatusConflict,
		"Conflict",
		"Email already registered.",
		ctx)
}

type validationError struct {
	ActualTag string `json:"tag"`
	Namespace string `json:"namespace"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	Param     string `json:"param"`
}

// HandleValidationErrors renders validator failures from ReadJSON as a 400
// with the offending fields; anything else becomes a 500.
func HandleValidationErrors(err error, ctx iris.Context) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		validationErrors := wrapValidationErrors(errs)

		ctx.StopWithProblem(
			iris.StatusBadRequest,
			iris.NewProblem().
				Title("Validation error").
				Detail("One or more fields failed to be validated").
				Key("errors", validationErrors))
		return
	}

	CreateInternalServerError(ctx)
}

func wrapValidationErrors(errs validator.ValidationErrors) []validationError {
	validationErrors := make([]validationError, 0, len(errs))
	for _, validationErr := range errs {
		validationErrors = append(validationErrors, validationError{
			ActualTag: validationErr.ActualTag(),
			Namespace: validationErr.Namespace(),
			Kind:      validationErr.Kind().String(),
			Type:      validationErr.Type().String(),
			Value:     validationErr.Param(),
			Param:     validationErr.Param(),
		})
	}
	return validationErrors
}
