package web

import (
	"fmt"
	"time"
	"tv_channel/helpers"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func Run() {
	router := gin.Default()

	// Configure and use CORS middleware
	config := cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all origins, adjust as needed
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	router.Use(cors.New(config))

	// UI clients get the log stream and now-playing events over the hub.
	hub := GetWebSocketHub()
	logs.GetLogger().AddHook(logs.NewWebSocketHook(hub))
	channel.SetBroadcaster(hub)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": true,
			})
		})
		api.GET("/schedule", handleScheduleGet)
		api.POST("/schedule", handleSchedulePost)
		api.GET("/videos", handleVideosGet)
		api.GET("/history", handleHistoryGet)
		api.POST("/queue", handleQueuePost)
		api.GET("/ws", handleWebSocket)
	}

	addr := fmt.Sprintf(":%d", helpers.GetConfig().App.WebPort)
	router.Run(addr)
}
