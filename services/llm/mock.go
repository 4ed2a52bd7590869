// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// MockClient is a scriptable Client for tests.
//
// Thread Safety: Safe for concurrent use as long as fields are set before
// first use.
type MockClient struct {
	// Response is returned on success when Fn is nil.
	Response string

	// Err, when set, fails every call.
	Err error

	// Fn, when set, overrides Response/Err entirely.
	Fn func(ctx context.Context, systemPrompt string, history []datatypes.Message, query string, params GenerationParams) (string, error)

	// Calls counts Complete invocations. Not synchronized; tests that
	// call concurrently should rely on their own counting.
	Calls int
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) Complete(ctx context.Context, systemPrompt string, history []datatypes.Message, query string, params GenerationParams) (string, error) {
	m.Calls++
	if m.Fn != nil {
		return m.Fn(ctx, systemPrompt, history, query, params)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Response, nil
}
