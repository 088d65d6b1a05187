// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/logger"
)

// anthropicAdapter maps Anthropic Messages API responses. Tool invocations
// arrive as tool_use content blocks carrying an id, a tool name and a
// structured input object.
type anthropicAdapter struct{}

// Vendor implements Adapter.
func (*anthropicAdapter) Vendor() Vendor { return VendorAnthropic }

// ExtractToolCalls implements Adapter.
func (*anthropicAdapter) ExtractToolCalls(raw []byte) ([]gateway.ToolCall, error) {
	var msg anthropic.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decoding anthropic response: %w", err)
	}

	calls := []gateway.ToolCall{}
	for _, block := range msg.Content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		calls = append(calls, gateway.ToolCall{
			ID:        toolUse.ID,
			Name:      toolUse.Name,
			Arguments: decodeArguments(toolUse.Input, "anthropic", toolUse.Name),
		})
	}
	return calls, nil
}

// EncodeToolResult implements Adapter. The follow-up turn is a user message
// content block of type tool_result correlated by the tool_use id.
func (*anthropicAdapter) EncodeToolResult(
	call gateway.ToolCall, result *gateway.ToolCallResult,
) (any, error) {
	return anthropic.NewToolResultBlock(call.ID, resultText(result), result.IsError), nil
}

// decodeArguments coerces a vendor argument payload into the canonical
// mapping. Unparseable arguments degrade to an empty mapping with a warning
// rather than failing the whole extraction.
func decodeArguments(input any, vendor, tool string) map[string]any {
	data, err := json.Marshal(input)
	if err != nil {
		logger.Warnw("Failed to serialize tool arguments, using empty mapping",
			"vendor", vendor, "tool", tool, "error", err)
		return map[string]any{}
	}
	return decodeArgumentsJSON(data, vendor, tool)
}

// decodeArgumentsJSON parses a raw JSON argument payload. Empty, null or
// malformed payloads all yield an empty mapping.
func decodeArgumentsJSON(data []byte, vendor, tool string) map[string]any {
	if len(data) == 0 || string(data) == "null" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		logger.Warnw("Failed to parse tool arguments, using empty mapping",
			"vendor", vendor, "tool", tool, "error", err)
		return map[string]any{}
	}
	if args == nil {
		return map[string]any{}
	}
	return args
}
