package util

import (
	"net/http"

	"github.com/SeakMengs/DocSign/internal/constant"
	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply; the docsign client decodes the same shape.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors"`
	Data    any    `json:"data"`
}

func BuildResponseSuccess(data any) Response {
	if data == nil {
		data = gin.H{}
	}
	return Response{Success: true, Message: constant.REQUEST_SUCCESSFUL, Errors: []ApiError{}, Data: data}
}

func ResponseSuccess(ctx *gin.Context, data any) {
	ResponseSuccessWithStatus(ctx, http.StatusOK, data)
}

func ResponseSuccessWithStatus(ctx *gin.Context, code int, data any) {
	ctx.AbortWithStatusJSON(code, BuildResponseSuccess(data))
}

// BuildResponseFailed accepts err as an error, a prepared []ApiError or nil.
func BuildResponseFailed(message string, err any, data any) Response {
	if message == "" {
		message = constant.REQUEST_UNSUCCESSFUL
	}

	errs := []ApiError{}
	switch e := err.(type) {
	case []ApiError:
		errs = e
	case error:
		errs = GenerateErrorMessages(e)
	}

	if data == nil {
		data = gin.H{}
	}

	return Response{Success: false, Message: message, Errors: errs, Data: data}
}

func ResponseFailed(ctx *gin.Context, code int, message string, err any, data any) {
	ctx.AbortWithStatusJSON(code, BuildResponseFailed(message, err, data))
}
