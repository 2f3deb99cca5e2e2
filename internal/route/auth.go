package route

import (
	"github.com/SeakMengs/DocSign/internal/controller"
	"github.com/SeakMengs/DocSign/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Auth(r *gin.RouterGroup, authController *controller.AuthController, middleware *middleware.Middleware) {
	g := r.Group("/auth")
	{
		g.POST("/register", authController.Register)
		g.POST("/login", authController.Login)
		g.GET("/me", middleware.AuthMiddleware, authController.Me)
	}
}
