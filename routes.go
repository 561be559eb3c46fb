package main

import (
	"choice-app/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleRequests registers the routes. auth protects session and monitor
// routes, limit throttles the writing ones.
func handleRequests(router *gin.Engine, ctrl *controllers.Controller, auth gin.HandlerFunc, limit gin.HandlerFunc) {
	// operations
	router.GET("/health", ctrl.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// auth-related
	router.POST("/auth/login", limit, ctrl.Login)
	router.POST("/auth/refresh", ctrl.Refresh) // the access token is usually expired here (no middleware)
	router.POST("/auth/logout", ctrl.Logout)
	router.GET("/auth/me", auth, ctrl.Me)

	// choices
	router.POST("/choices", limit, ctrl.CreateChoice)
	router.POST("/choices/verify", limit, ctrl.VerifyVisit)
	router.GET("/choices/user/:userId", ctrl.ListUserChoices)

	// cross-collection lookup
	router.GET("/finder/:id", ctrl.FindEntity)

	// system tools
	monitor := router.Group("/monitor/requests", auth)
	monitor.GET("/count", ctrl.CountRequests)
	monitor.GET("/dump", ctrl.DumpRequests)
	monitor.POST("/flush", ctrl.FlushRequests)
}
