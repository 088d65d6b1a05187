// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// openaiAdapter maps OpenAI chat-completion responses. Tool invocations
// arrive on the choice message as tool_calls entries whose function
// arguments are a JSON-encoded string.
type openaiAdapter struct{}

// Vendor implements Adapter.
func (*openaiAdapter) Vendor() Vendor { return VendorOpenAI }

// ExtractToolCalls implements Adapter.
func (*openaiAdapter) ExtractToolCalls(raw []byte) ([]gateway.ToolCall, error) {
	var completion openai.ChatCompletion
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, fmt.Errorf("decoding openai response: %w", err)
	}

	calls := []gateway.ToolCall{}
	for _, choice := range completion.Choices {
		for _, toolCall := range choice.Message.ToolCalls {
			calls = append(calls, gateway.ToolCall{
				ID:        toolCall.ID,
				Name:      toolCall.Function.Name,
				Arguments: decodeArgumentsJSON([]byte(toolCall.Function.Arguments), "openai", toolCall.Function.Name),
			})
		}
	}
	return calls, nil
}

// EncodeToolResult implements Adapter. The follow-up turn is a role-tool
// message correlated by the tool call id.
func (*openaiAdapter) EncodeToolResult(
	call gateway.ToolCall, result *gateway.ToolCallResult,
) (any, error) {
	return openai.ToolMessage(resultText(result), call.ID), nil
}
