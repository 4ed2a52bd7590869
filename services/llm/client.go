// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides clients for the external text-generation service.
//
// Clients speak the OpenAI-compatible chat completions REST API via raw
// net/http, no provider SDKs. The generative delegate owns prompt
// construction and failure semantics; this package only moves messages over
// the wire.
//
// Thread Safety: All Client implementations must be safe for concurrent use.
package llm

import (
	"context"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// GenerationParams holds the decoding parameters for a completion request.
type GenerationParams struct {
	// Temperature controls randomness. Negative omits it from the request
	// so the provider default applies.
	Temperature float64

	// MaxTokens bounds the response length. Zero omits the bound.
	MaxTokens int

	// RepeatPenalty discourages repetition where the backend supports it
	// (sent as frequency_penalty − 1.0). Zero omits it.
	RepeatPenalty float64

	// Stop terminates generation at any of these sequences.
	Stop []string
}

// Client is a text-generation backend.
type Client interface {
	// Complete sends systemPrompt + history + query and returns the
	// assistant's text.
	//
	// Inputs:
	//   - ctx: Carries the caller's deadline; the call must respect
	//     cancellation promptly.
	//   - systemPrompt: Rendered persona and context block.
	//   - history: Prior conversation turns, oldest first.
	//   - query: The current user query.
	//   - params: Decoding parameters.
	//
	// Outputs:
	//   - string: The completion text. Never empty on success.
	//   - error: Non-nil on any transport, API, or decode failure.
	Complete(ctx context.Context, systemPrompt string, history []datatypes.Message, query string, params GenerationParams) (string, error)

	// Name identifies the backend for sources attribution and logs.
	Name() string
}
