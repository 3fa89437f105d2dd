package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trenchverse/miniapp-bridge/internal/services"
)

type UserHandler struct {
	store *services.LedgerStore
}

func NewUserHandler(store *services.LedgerStore) *UserHandler {
	return &UserHandler{store: store}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	fid := c.GetString("fid")
	sessionID := c.GetString("session_id")
	if fid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	session, err := h.store.GetUserSession(c.Request.Context(), fid, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid"})
		return
	}

	coins, err := h.store.GetCoins(c.Request.Context(), fid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": session.Identity,
		"session": gin.H{
			"session_id":    session.SessionID,
			"host":          session.HostKind,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessed,
		},
		"coins": coins,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	fid := c.GetString("fid")
	sessionID := c.GetString("session_id")
	if fid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.store.DeleteUserSession(c.Request.Context(), fid, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
