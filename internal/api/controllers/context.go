package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"arcanum/pkg/utils"
)

// currentAccount reads the authenticated identity the JWT middleware put on
// the context. Returns false after writing the error response.
func currentAccount(c *gin.Context) (uuid.UUID, string, bool) {
	raw := c.GetString("user_id")
	if raw == "" {
		utils.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid token subject")
		return uuid.Nil, "", false
	}
	return id, c.GetString("user_email"), true
}
