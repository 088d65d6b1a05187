// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

func TestQualifyToolName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "github__create_issue", gateway.QualifyToolName("github", "create_issue"))
	assert.Equal(t, "archestra__whoami", gateway.QualifyToolName(gateway.BuiltinNamespace, "whoami"))
}

func TestSplitToolName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		qualified     string
		wantNamespace string
		wantTool      string
		wantErr       bool
	}{
		{
			name:          "simple qualified name",
			qualified:     "github__create_issue",
			wantNamespace: "github",
			wantTool:      "create_issue",
		},
		{
			name:          "tool part may contain the separator",
			qualified:     "slack__post__message",
			wantNamespace: "slack",
			wantTool:      "post__message",
		},
		{
			name:          "builtin namespace",
			qualified:     "archestra__list_memories",
			wantNamespace: "archestra",
			wantTool:      "list_memories",
		},
		{
			name:      "unqualified name",
			qualified: "create_issue",
			wantErr:   true,
		},
		{
			name:      "empty namespace",
			qualified: "__create_issue",
			wantErr:   true,
		},
		{
			name:      "empty tool part",
			qualified: "github__",
			wantErr:   true,
		},
		{
			name:      "empty string",
			qualified: "",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			namespace, tool, err := gateway.SplitToolName(tt.qualified)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, gateway.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNamespace, namespace)
			assert.Equal(t, tt.wantTool, tool)
		})
	}
}

func TestIsBuiltin(t *testing.T) {
	t.Parallel()

	assert.True(t, gateway.IsBuiltin("archestra__whoami"))
	assert.False(t, gateway.IsBuiltin("github__create_issue"))
	// The namespace must match exactly, not merely share a prefix.
	assert.False(t, gateway.IsBuiltin("archestra2__tool"))
	assert.False(t, gateway.IsBuiltin("archestra"))
}
