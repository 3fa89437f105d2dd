package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/trenchverse/miniapp-bridge/internal/config"
)

// GamesHandler lists the game bundles available for LOAD_GAME switching.
type GamesHandler struct {
	gamesDir    string
	defaultGame string
}

func NewGamesHandler(cfg *config.Config) *GamesHandler {
	return &GamesHandler{
		gamesDir:    cfg.GamesDir,
		defaultGame: cfg.DefaultGame,
	}
}

func (h *GamesHandler) ListGames(c *gin.Context) {
	entries, err := os.ReadDir(h.gamesDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list games"})
		return
	}

	var games []gin.H
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Only bundles with an entry point count.
		index := filepath.Join(h.gamesDir, entry.Name(), "index.html")
		if _, err := os.Stat(index); err != nil {
			continue
		}
		games = append(games, gin.H{
			"name": entry.Name(),
			"url":  "/games/" + entry.Name() + "/index.html",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"games":   games,
		"default": h.defaultGame,
	})
}
