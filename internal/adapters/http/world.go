package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/ProximityVoice/internal/app"
	"github.com/dkeye/ProximityVoice/internal/core"
	"github.com/dkeye/ProximityVoice/internal/domain"
)

// WorldHandlers is the surface the game-world collaborator drives: player
// join/leave lifecycle and the once-per-second position snapshot.
type WorldHandlers struct {
	Orch         *app.Orchestrator
	VoiceBaseURL string
}

type playerJoinRequest struct {
	PlayerID string          `json:"playerId" binding:"required"`
	Username string          `json:"username" binding:"required"`
	Position domain.Position `json:"position"`
}

type positionUpdate struct {
	PlayerID string          `json:"playerId" binding:"required"`
	Position domain.Position `json:"position"`
}

type positionsRequest struct {
	Positions []positionUpdate `json:"positions" binding:"required"`
}

// PostPlayer registers a voice session for a player entering the world and
// returns the invitation URL the player opens to join voice.
func (h *WorldHandlers) PostPlayer(c *gin.Context) {
	var req playerJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid, err := h.Orch.PlayerJoin(domain.PlayerID(req.PlayerID), req.Username, req.Position)
	switch {
	case errors.Is(err, core.ErrDuplicatePlayer):
		c.JSON(http.StatusConflict, gin.H{"error": "player already has an active session"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Info().Str("module", "adapters.http").Str("player", req.PlayerID).Str("sid", string(sid)).Msg("player joined world")
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": sid,
		"voiceUrl":  h.VoiceBaseURL + string(sid),
	})
}

func (h *WorldHandlers) DeletePlayer(c *gin.Context) {
	playerID := domain.PlayerID(c.Param("playerId"))
	h.Orch.PlayerLeave(playerID)
	c.Status(http.StatusNoContent)
}

// PutPositions applies one world-tick position snapshot. Players that left
// between the snapshot and processing are skipped silently.
func (h *WorldHandlers) PutPositions(c *gin.Context) {
	var req positionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, p := range req.Positions {
		h.Orch.PositionTick(domain.PlayerID(p.PlayerID), p.Position)
	}
	c.Status(http.StatusNoContent)
}
