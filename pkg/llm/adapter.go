// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package llm provides the vendor response adapters: one per supported LLM
// vendor, each extracting canonical tool calls from that vendor's completion
// response shape and encoding canonical results back into vendor follow-up
// turns.
//
// The vendor set is closed. Adding a vendor means implementing Adapter and
// registering it in ForVendor; the router and dispatcher never change.
package llm

import (
	"fmt"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// Vendor tags one supported LLM vendor.
type Vendor string

// Supported vendors.
const (
	VendorAnthropic Vendor = "anthropic"
	VendorOpenAI    Vendor = "openai"
	VendorGemini    Vendor = "gemini"
)

// Adapter is the capability set every vendor adapter implements.
type Adapter interface {
	// Vendor returns the tag this adapter serves.
	Vendor() Vendor

	// ExtractToolCalls scans a raw vendor completion response for
	// tool-invocation blocks and maps each to a canonical call, preserving
	// the vendor's block order. A response without tool invocations yields
	// an empty slice, not an error. Absent or empty arguments map to an
	// empty mapping, never nil.
	ExtractToolCalls(raw []byte) ([]gateway.ToolCall, error)

	// EncodeToolResult encodes a canonical result as the vendor's follow-up
	// turn shape for the given originating call.
	EncodeToolResult(call gateway.ToolCall, result *gateway.ToolCallResult) (any, error)
}

// ForVendor selects the adapter for a vendor tag.
func ForVendor(v Vendor) (Adapter, error) {
	switch v {
	case VendorAnthropic:
		return &anthropicAdapter{}, nil
	case VendorOpenAI:
		return &openaiAdapter{}, nil
	case VendorGemini:
		return &geminiAdapter{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported vendor %q", gateway.ErrInvalidInput, v)
	}
}

// resultText flattens a canonical result's text blocks into the single
// string most vendor follow-up shapes expect.
func resultText(result *gateway.ToolCallResult) string {
	if result.IsError && result.Error != "" {
		return result.Error
	}
	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			if text != "" {
				text += "\n"
			}
			text += block.Text
		}
	}
	return text
}
