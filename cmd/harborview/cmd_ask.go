// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/Harborview/services/advisor"
)

func newAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the advisor one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			resp, err := sendQuery(question, "")
			if err != nil {
				return err
			}
			printAnswer(resp)
			return nil
		},
	}
}

func newChatCommand() *cobra.Command {
	var resumeID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive advisor session",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runChat(resumeID)
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume", "", "Resume an existing session id")
	return cmd
}

func runChat(sessionID string) error {
	if sessionID != "" {
		fmt.Printf("Resuming session %s\n", sessionID)
	}
	fmt.Println("Harborview advisor. Type your question; 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		resp, err := sendQuery(line, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		sessionID = resp.SessionID
		printAnswer(resp)
	}
	if sessionID != "" {
		fmt.Printf("Session: %s (use --resume to continue)\n", sessionID)
	}
	return scanner.Err()
}

// sendQuery posts one question to the advisor server.
func sendQuery(question, sessionID string) (*advisor.QueryResponse, error) {
	body, err := json.Marshal(advisor.QueryRequest{Query: question, SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(serverURL+"/v1/advisor/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("reaching advisor at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr advisor.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("advisor: %s (%s)", apiErr.Error, apiErr.Code)
		}
		return nil, fmt.Errorf("advisor returned HTTP %d", resp.StatusCode)
	}

	var out advisor.QueryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding advisor response: %w", err)
	}
	return &out, nil
}

func printAnswer(resp *advisor.QueryResponse) {
	fmt.Printf("\n%s\n", resp.Answer.Text)
	if len(resp.Answer.Sources) > 0 {
		fmt.Printf("\n[confidence %.2f | sources: %s]\n",
			resp.Answer.Confidence, strings.Join(resp.Answer.Sources, ", "))
	}
	if len(resp.Answer.SuggestedActions) > 0 {
		fmt.Println("Suggestions:")
		for _, a := range resp.Answer.SuggestedActions {
			fmt.Printf("  - %s\n", a.Label)
		}
	}
	fmt.Println()
}
