package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
	streamx "github.com/tanpawarit/recruiter-chat/agent/stream"
)

type chatRequest struct {
	Message   string          `json:"message"`
	SessionID string          `json:"sessionId"`
	History   json.RawMessage `json:"history"`
}

// turnRequest keeps an explicit history array, even an empty one, apart
// from an absent or null field.
func (r chatRequest) turnRequest() (contractx.TurnRequest, error) {
	req := contractx.TurnRequest{Message: r.Message, SessionID: r.SessionID}
	if len(r.History) == 0 || string(r.History) == "null" {
		return req, nil
	}

	var history []*schema.Message
	if err := json.Unmarshal(r.History, &history); err != nil {
		return req, err
	}
	if history == nil {
		history = []*schema.Message{}
	}
	req.History = history
	req.HasHistory = true
	return req, nil
}

func (h *handlers) postChat(c *gin.Context) {
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Error().Err(err).Msg("decode chat request")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	req, err := body.turnRequest()
	if err != nil {
		log.Error().Err(err).Msg("decode chat history")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.chat.Validate(req); err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			c.String(http.StatusBadRequest, "Message is required")
			return
		}
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	w := streamx.NewWriter(c.Writer, streamx.WithEnvelopeHook(func(env streamx.Envelope) {
		h.metrics.ObserveEnvelope(string(env.Type))
	}))
	// The turn logs its own outcome; the status line is already sent.
	_ = h.chat.Stream(c.Request.Context(), req, w)
}
