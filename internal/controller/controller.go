package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	appcontext "github.com/SeakMengs/DocSign/internal/app_context"
	"github.com/SeakMengs/DocSign/internal/auth"
	"github.com/gin-gonic/gin"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index    *IndexController
	Auth     *AuthController
	Document *DocumentController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:    &IndexController{baseController: bc},
		Auth:     &AuthController{baseController: bc},
		Document: &DocumentController{baseController: bc},
	}
}

func (b *baseController) getAuthUser(ctx *gin.Context) (*auth.JWTPayload, error) {
	user, exists := ctx.Get("user")
	if !exists {
		return nil, errors.New("user not found in context")
	}

	jsonUser, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	var authUser *auth.JWTPayload
	err = json.Unmarshal(jsonUser, &authUser)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	if authUser == nil || authUser.ID == "" {
		return nil, errors.New("user in context has no id")
	}

	return authUser, nil
}
