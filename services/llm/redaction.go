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

import "regexp"

// redactionPattern pairs a compiled regex with a labeled replacement so a
// log reader knows what class of secret was present without seeing it.
type redactionPattern struct {
	pattern     *regexp.Regexp
	replacement string
}

// redactionPatterns is applied in order; more specific prefixes first.
var redactionPatterns = []redactionPattern{
	// OpenAI-style API key: sk-<base62, 20+ chars>. The length floor keeps
	// short strings like "sk-test" readable in logs.
	{regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`), "[REDACTED:api_key]"},
	// Bearer token in an Authorization header echoed into an error body.
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`), "[REDACTED:bearer_token]"},
	// API key passed as a URL query parameter.
	{regexp.MustCompile(`key=[A-Za-z0-9._-]{10,}`), "key=[REDACTED]"},
}

// safeLogBodyLimit caps how much of an upstream response body is echoed
// into an error. API error bodies are short; anything longer is usually an
// HTML error page nobody wants in a log line.
const safeLogBodyLimit = 500

// SafeLogString redacts known secret patterns from a string and truncates
// it before it is embedded in an error or log line.
//
// Pattern-based only: a secret in a format this package has never seen
// passes through. The providers we call echo the Authorization header into
// some error bodies, which is the case this exists for.
//
// Thread Safety: Safe for concurrent use.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.pattern.ReplaceAllString(s, p.replacement)
	}
	if len(s) > safeLogBodyLimit {
		s = s[:safeLogBodyLimit] + "...(truncated)"
	}
	return s
}
