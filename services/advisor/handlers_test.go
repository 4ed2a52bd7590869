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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
	"github.com/AleutianAI/Harborview/services/advisor/market"
	"github.com/AleutianAI/Harborview/services/advisor/session"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewMemoryStore(time.Hour, 0, nil)
	t.Cleanup(store.Close)

	svc, err := NewService(config.Default(), market.DemoSource(), store, nil, nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// POST /v1/advisor/query
// =============================================================================

func TestHandleQuery_AnswersWithNewSession(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/advisor/query",
		QueryRequest{Query: "tell me about Katy"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SessionID == "" {
		t.Errorf("empty query session id was not minted")
	}
	if resp.Answer.Text == "" {
		t.Errorf("empty answer text")
	}
	if resp.Answer.Confidence <= 0 || resp.Answer.Confidence > 1 {
		t.Errorf("confidence = %v", resp.Answer.Confidence)
	}
}

func TestHandleQuery_EchoesProvidedSessionID(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/advisor/query",
		QueryRequest{Query: "hello", SessionID: "fixed-id"})

	var resp QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SessionID != "fixed-id" {
		t.Errorf("session id = %q, want fixed-id", resp.SessionID)
	}
}

// The pipeline owns empty queries: they are answered with the clarifying
// fallback, not rejected at the HTTP boundary.
func TestHandleQuery_EmptyQueryStillAnswered(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/advisor/query", QueryRequest{Query: ""})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer.Text == "" {
		t.Errorf("empty query must still get a clarifying answer")
	}
}

func TestHandleQuery_MalformedBodyRejected(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/advisor/query",
		strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Code != "INVALID_BODY" {
		t.Errorf("error code = %q", resp.Code)
	}
}

// =============================================================================
// GET /v1/advisor/session/:id
// =============================================================================

func TestHandleSession_RoundTrip(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/v1/advisor/query",
		QueryRequest{Query: "I have $150k, what can I do?", SessionID: "sess-1"})

	w := doJSON(t, router, http.MethodGet, "/v1/advisor/session/sess-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("session id = %q", resp.SessionID)
	}
	if len(resp.Turns) != 2 {
		t.Errorf("turns = %d, want 2", len(resp.Turns))
	}
	if resp.Slots.Budget != 150_000 {
		t.Errorf("budget slot = %v, want 150000", resp.Slots.Budget)
	}
}

func TestHandleSession_UnknownIDReturnsEmptySession(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/advisor/session/never-seen", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Turns) != 0 {
		t.Errorf("unknown session has turns: %v", resp.Turns)
	}
}

// =============================================================================
// GET /v1/advisor/areas/:name/profile
// =============================================================================

func TestHandleAreaProfile_KnownArea(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/advisor/areas/katy/profile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var profile datatypes.CompositeAreaProfile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if profile.Area != "katy" {
		t.Errorf("area = %q", profile.Area)
	}
	if profile.Market == nil || profile.Market.MedianPrice != 385_000 {
		t.Errorf("market domain missing or wrong: %+v", profile.Market)
	}
	if profile.Investment == nil {
		t.Errorf("investment assessment missing")
	}
}

// Unknown areas are data, not errors: the profile comes back with every
// domain missing and baseline derived scores.
func TestHandleAreaProfile_UnknownAreaStillProfiled(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/advisor/areas/nowhereville/profile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var profile datatypes.CompositeAreaProfile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if profile.Market != nil || profile.Rental != nil {
		t.Errorf("unknown area has domain data: %+v", profile)
	}
	if len(profile.MissingDomains) != len(market.AllDomains) {
		t.Errorf("MissingDomains = %v", profile.MissingDomains)
	}
	if profile.Investment == nil || profile.Investment.Total != 50 {
		t.Errorf("baseline investment score missing: %+v", profile.Investment)
	}
}

// =============================================================================
// Health and Readiness
// =============================================================================

func TestHandleHealthAndReady(t *testing.T) {
	router := newTestRouter(t)

	if w := doJSON(t, router, http.MethodGet, "/v1/advisor/health", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/v1/advisor/ready", nil); w.Code != http.StatusOK {
		t.Errorf("ready status = %d", w.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := newTestRouter(t)

	raw, _ := json.Marshal(QueryRequest{Query: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/v1/advisor/query", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	// An inbound id is honored; no replacement header is written.
	if got := w.Header().Get("X-Request-ID"); got != "" && got != "req-42" {
		t.Errorf("X-Request-ID rewritten to %q", got)
	}
}
