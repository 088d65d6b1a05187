// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// geminiAdapter maps Gemini generate-content responses. Tool invocations
// arrive as functionCall parts; Gemini may omit the call id, in which case
// the gateway mints one so call/result correlation still holds.
type geminiAdapter struct{}

// Vendor implements Adapter.
func (*geminiAdapter) Vendor() Vendor { return VendorGemini }

// ExtractToolCalls implements Adapter.
func (*geminiAdapter) ExtractToolCalls(raw []byte) ([]gateway.ToolCall, error) {
	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}

	calls := []gateway.ToolCall{}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.FunctionCall == nil {
				continue
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = uuid.NewString()
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, gateway.ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	return calls, nil
}

// EncodeToolResult implements Adapter. The follow-up turn is a
// functionResponse part; the result payload rides under a single key the
// way Gemini function-calling expects a response object.
func (*geminiAdapter) EncodeToolResult(
	call gateway.ToolCall, result *gateway.ToolCallResult,
) (any, error) {
	response := map[string]any{"result": resultText(result)}
	if result.IsError {
		response = map[string]any{"error": resultText(result)}
	}
	return &genai.Part{
		FunctionResponse: &genai.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: response,
		},
	}, nil
}
