// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package advisor

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all advisor routes with the router.
//
// Description:
//
//	Registers the /v1/advisor/* endpoints with the given Gin router group.
//	The group should already have any required middleware applied.
//
// Endpoints:
//
//	POST /v1/advisor/query - Resolve one conversational query
//	GET  /v1/advisor/session/:id - Session turn history and slots
//	GET  /v1/advisor/areas/:name/profile - Composite area profile
//	GET  /v1/advisor/health - Liveness
//	GET  /v1/advisor/ready - Readiness
//
// Example:
//
//	service, _ := advisor.NewService(cfg, source, store, genClient, logger)
//	handlers := advisor.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	advisor.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	adv := rg.Group("/advisor")
	{
		adv.POST("/query", handlers.HandleQuery)

		adv.GET("/session/:id", handlers.HandleSession)
		adv.GET("/areas/:name/profile", handlers.HandleAreaProfile)

		adv.GET("/health", handlers.HandleHealth)
		adv.GET("/ready", handlers.HandleReady)
	}
}
