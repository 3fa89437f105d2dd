package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trenchverse/miniapp-bridge/internal/models"
	"github.com/trenchverse/miniapp-bridge/internal/services"
)

type AuthHandler struct {
	store      *services.LedgerStore
	jwtService *services.JWTService
	runtime    services.Runtime
}

func NewAuthHandler(store *services.LedgerStore, jwtService *services.JWTService, runtime services.Runtime) *AuthHandler {
	return &AuthHandler{
		store:      store,
		jwtService: jwtService,
		runtime:    runtime,
	}
}

// Authenticate resolves identity from the detected host runtime and issues
// a session token. Standalone sessions authenticate as Guest with ledger
// features disabled.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	ctx := c.Request.Context()

	identity, err := h.runtime.ResolveIdentity(ctx)
	if err != nil {
		log.Printf("Failed to resolve identity: %v", err)
		identity = models.GuestIdentity()
	}

	session := &models.UserSession{
		FID:          identity.FID,
		SessionID:    models.GenerateSessionID(),
		Identity:     identity,
		HostKind:     string(h.runtime.Kind()),
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}

	if identity.Authenticated() {
		if err := h.store.StoreUser(ctx, identity); err != nil {
			log.Printf("Failed to store user %s: %v", identity.FID, err)
		}
		if err := h.store.StoreUserSession(ctx, session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}
	}

	token, err := h.jwtService.GenerateToken(identity.FID, session.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  identity,
		"host":  h.runtime.Kind(),
	})
}
