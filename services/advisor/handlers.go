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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// ErrorResponse is the uniform error body for every advisor endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// QueryRequest is the body of POST /v1/advisor/query.
type QueryRequest struct {
	// Query is the user's utterance. Required, but an empty string is
	// answered with the clarifying fallback rather than rejected.
	Query string `json:"query"`

	// SessionID ties this turn to a conversation. Empty creates a new
	// session; the id is echoed back in the response.
	SessionID string `json:"session_id,omitempty"`

	// UserID is an optional caller identity, used for logging only.
	UserID string `json:"user_id,omitempty"`
}

// QueryResponse wraps the answer candidate with its session id.
type QueryResponse struct {
	SessionID string                    `json:"session_id"`
	Answer    datatypes.AnswerCandidate `json:"answer"`
}

// SessionResponse is the body of GET /v1/advisor/session/:id.
type SessionResponse struct {
	SessionID string               `json:"session_id"`
	Turns     []datatypes.Turn     `json:"turns"`
	Slots     datatypes.SlotMemory `json:"slots"`
}

// Handlers holds the HTTP handlers for the advisor endpoints.
//
// Thread Safety: Safe for concurrent use.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handler set.
func NewHandlers(service *Service) *Handlers {
	if service == nil {
		panic("NewHandlers: service must not be nil")
	}
	return &Handlers{service: service}
}

// HandleQuery handles POST /v1/advisor/query.
//
// Description:
//
//	Resolves one conversational query. Always returns 200 with exactly one
//	answer candidate; pipeline failures surface as lower-confidence
//	answers, never as HTTP errors. Only a malformed body is rejected.
//
// Response:
//
//	200 OK: QueryResponse
//	400 Bad Request: body is not valid JSON
func (h *Handlers) HandleQuery(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleQuery")

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "request body must be valid JSON",
			Code:  "INVALID_BODY",
		})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	answer := h.service.Resolve(c.Request.Context(), req.Query, sessionID, req.UserID)
	logger.Info("query answered",
		slog.String("session_id", sessionID),
		slog.Float64("confidence", answer.Confidence),
		slog.Duration("elapsed", time.Since(start)),
	)

	c.JSON(http.StatusOK, QueryResponse{SessionID: sessionID, Answer: answer})
}

// HandleSession handles GET /v1/advisor/session/:id.
//
// Response:
//
//	200 OK: SessionResponse (empty turns/slots for an unknown id)
//	503 Service Unavailable: session store unreachable
func (h *Handlers) HandleSession(c *gin.Context) {
	sessionID := c.Param("id")
	sctx, err := h.service.SessionContext(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "session store unavailable",
			Code:  "SESSION_STORE_UNAVAILABLE",
		})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{
		SessionID: sessionID,
		Turns:     sctx.Turns,
		Slots:     sctx.Slots,
	})
}

// HandleAreaProfile handles GET /v1/advisor/areas/:name/profile.
//
// Description:
//
//	Builds and returns the composite profile for an area. Unknown areas
//	still return 200 with an all-nil-domain profile and baseline scores;
//	missing data is data here.
//
// Response:
//
//	200 OK: datatypes.CompositeAreaProfile
//	400 Bad Request: empty area name
func (h *Handlers) HandleAreaProfile(c *gin.Context) {
	area := c.Param("name")
	if area == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "area name is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}
	profile := h.service.AreaProfile(c.Request.Context(), area)
	c.JSON(http.StatusOK, profile)
}

// HandleHealth handles GET /v1/advisor/health. Liveness only.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/advisor/ready. Ready means the curated corpus
// is loaded; degraded dependencies do not fail readiness.
func (h *Handlers) HandleReady(c *gin.Context) {
	if !h.service.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Header("X-Request-ID", id)
	return id
}
