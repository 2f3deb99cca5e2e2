package route

import (
	"github.com/SeakMengs/DocSign/internal/controller"
	"github.com/SeakMengs/DocSign/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Documents(r *gin.RouterGroup, documentController *controller.DocumentController, middleware *middleware.Middleware) {
	g := r.Group("/docs")
	g.Use(middleware.AuthMiddleware)
	{
		g.GET("", documentController.ListDocuments)
		g.POST("/upload", documentController.UploadDocument)
		// Test endpoint with curl: curl -H "Authorization: Bearer $TOKEN" http://localhost:8080/api/docs/view/<id> -o doc.pdf
		g.GET("/view/:id", documentController.ViewDocument)
		g.POST("/sign/:id", documentController.SignDocument)
		g.GET("/:id", documentController.GetDocument)
		g.PUT("/:id", documentController.UpdateDocument)
		g.DELETE("/:id", documentController.DeleteDocument)
	}
}
