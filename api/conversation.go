package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	nodex "github.com/tanpawarit/recruiter-chat/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/recruiter-chat/agent/state"
)

const actionCleanupOld = "cleanup-old"

type sessionInfo struct {
	CreatedAt    time.Time `json:"createdAt"`
	LastUpdated  time.Time `json:"lastUpdated"`
	MessageCount int       `json:"messageCount"`
}

type sessionSummary struct {
	SessionID string `json:"sessionId"`
	sessionInfo
}

type conversationResponse struct {
	SessionID   string            `json:"sessionId"`
	History     []*schema.Message `json:"history"`
	SessionInfo sessionInfo       `json:"sessionInfo"`
}

type cleanupRequest struct {
	HoursOld *float64 `json:"hoursOld"`
}

func requireSessionID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Query("sessionId"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return "", false
	}
	return id, true
}

func (h *handlers) getConversation(c *gin.Context) {
	id, ok := requireSessionID(c)
	if !ok {
		return
	}

	session := h.store.GetOrCreateSession(id)

	c.JSON(http.StatusOK, conversationResponse{
		SessionID:   id,
		History:     session.Transcript,
		SessionInfo: infoOf(&session),
	})
}

func infoOf(session *statex.Session) sessionInfo {
	return sessionInfo{
		CreatedAt:    session.CreatedAt,
		LastUpdated:  session.LastUpdatedAt,
		MessageCount: session.MessageCount(),
	}
}

// listConversations returns a summary of every live session, oldest first.
func (h *handlers) listConversations(c *gin.Context) {
	sessions := h.store.Sessions()
	out := make([]sessionSummary, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionSummary{
			SessionID:   sessions[i].ID,
			sessionInfo: infoOf(&sessions[i]),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *handlers) deleteConversation(c *gin.Context) {
	id, ok := requireSessionID(c)
	if !ok {
		return
	}

	// Wait out an in-flight turn so its write-back cannot restore the history.
	unlock, err := h.store.Lock(c.Request.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("clear conversation abandoned")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear conversation"})
		return
	}
	defer unlock()

	h.store.ClearSession(id)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Conversation history cleared",
		"sessionId": id,
	})
}

func (h *handlers) putConversation(c *gin.Context) {
	if _, ok := requireSessionID(c); !ok {
		return
	}
	if c.Query("action") != actionCleanupOld {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}

	var body cleanupRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		log.Error().Err(err).Msg("decode cleanup request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conversation"})
		return
	}
	hours := h.sweepHours
	if body.HoursOld != nil {
		hours = *body.HoursOld
	}

	removed, err := nodex.SweepSessions(h.store, hours)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Float64("hours_old", hours).Int("removed", removed).Msg("swept idle sessions")

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Cleaned up sessions older than %s hours", strconv.FormatFloat(hours, 'f', -1, 64)),
		"removed": removed,
	})
}
