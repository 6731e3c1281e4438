package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/socktun/socktun/api/docs"
)

func registerRoutes(router *gin.Engine, h handlers) {
	router.GET("/", h.Health)
	router.GET("/health", h.Health)
	router.GET("/status", h.Status)
	router.GET("/stats", h.Stats)
	router.POST("/connect", h.Connect)
	router.POST("/disconnect", h.Disconnect)

	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.NoRoute(notFound)
}
