package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SeakMengs/DocSign/internal/auth"
	"github.com/SeakMengs/DocSign/internal/model"
	"github.com/SeakMengs/DocSign/internal/repository"
	"github.com/SeakMengs/DocSign/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthController struct {
	*baseController
}

const ErrInvalidCredentials = "invalid email or password"

type registerRequest struct {
	Name     string `json:"name" form:"name" binding:"required,strNotEmpty,cmax=100"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (ac AuthController) issueToken(ctx *gin.Context, user *model.User) {
	token, err := ac.app.JWTService.GenerateAccessToken(auth.JWTPayload{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
	if err != nil {
		ac.app.Logger.Errorf("Failed to generate access token: %v", err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to generate token", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"token": token,
		"user":  user,
	})
}

func (ac AuthController) Register(ctx *gin.Context) {
	var body registerRequest
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	hash, err := util.HashPassword(body.Password)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to register", util.GenerateErrorMessages(err), nil)
		return
	}

	user := &model.User{
		Name:         strings.TrimSpace(body.Name),
		Email:        strings.TrimSpace(body.Email),
		PasswordHash: hash,
	}

	if err := ac.app.Repository.User.CheckDupAndCreate(ctx, nil, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			util.ResponseFailed(ctx, http.StatusConflict, "User already exists", util.GenerateErrorMessages(err, "email"), nil)
			return
		}

		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to register", util.GenerateErrorMessages(err), nil)
		return
	}

	ac.issueToken(ctx, user)
}

func (ac AuthController) Login(ctx *gin.Context) {
	var body loginRequest
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	user, err := ac.app.Repository.User.GetByEmail(ctx, nil, strings.TrimSpace(body.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusUnauthorized, ErrInvalidCredentials, util.GenerateErrorMessages(errors.New(ErrInvalidCredentials), "email"), nil)
			return
		}

		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to login", util.GenerateErrorMessages(err), nil)
		return
	}

	if !util.CheckPassword(user.PasswordHash, body.Password) {
		util.ResponseFailed(ctx, http.StatusUnauthorized, ErrInvalidCredentials, util.GenerateErrorMessages(errors.New(ErrInvalidCredentials), "email"), nil)
		return
	}

	ac.issueToken(ctx, user)
}

func (ac AuthController) Me(ctx *gin.Context) {
	authUser, err := ac.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	user, err := ac.app.Repository.User.GetById(ctx, nil, authUser.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(errors.New("user no longer exists")), nil)
			return
		}

		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get user", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user": user,
	})
}
