package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-balancer/internal/middleware"
	"github.com/noah-isme/timetable-balancer/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims { return middleware.Claims(c) }

func actorID(c *gin.Context) string {
	if claims := middleware.Claims(c); claims != nil {
		return claims.UserID
	}
	return ""
}
