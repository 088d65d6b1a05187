// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/archestra-ai/archestra/pkg/builtin"
	"github.com/archestra-ai/archestra/pkg/catalog"
	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/gateway/mocks"
)

var testAgent = &gateway.Agent{ID: "agent-1", Name: "Test Agent"}

func testBuiltins() *builtin.Registry {
	r := builtin.NewRegistry()
	r.Register(builtin.Tool{
		Name:        "whoami",
		Description: "Identity.",
		Handler: func(_ context.Context, agent *gateway.Agent, _ map[string]any) (any, error) {
			return agent.ID, nil
		},
	})
	return r
}

func TestListToolsAggregatesBuiltinsAndBackends(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	github := &gateway.BackendTarget{Name: "github", BaseURL: "http://gh/mcp", TransportType: "streamable-http"}
	slack := &gateway.BackendTarget{Name: "slack", BaseURL: "http://sl/mcp", TransportType: "sse"}

	client := mocks.NewMockBackendClient(ctrl)
	client.EXPECT().ListTools(gomock.Any(), github).Return([]gateway.Tool{
		{Name: "create_issue", Description: "Create an issue."},
	}, nil)
	client.EXPECT().ListTools(gomock.Any(), slack).Return([]gateway.Tool{
		{Name: "post_message", Description: "Post a message."},
	}, nil)

	c := catalog.New(testBuiltins(), client, []*gateway.BackendTarget{github, slack})
	tools, err := c.ListTools(context.Background(), testAgent)
	require.NoError(t, err)

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{
		"archestra__whoami",
		"github__create_issue",
		"slack__post_message",
	}, names)
}

func TestListToolsSkipsUnreachableBackend(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	github := &gateway.BackendTarget{Name: "github"}
	slack := &gateway.BackendTarget{Name: "slack"}

	client := mocks.NewMockBackendClient(ctrl)
	client.EXPECT().ListTools(gomock.Any(), github).
		Return(nil, gateway.ErrBackendUnavailable).
		Times(3)
	client.EXPECT().ListTools(gomock.Any(), slack).Return([]gateway.Tool{
		{Name: "post_message"},
	}, nil)

	c := catalog.New(testBuiltins(), client, []*gateway.BackendTarget{github, slack})
	tools, err := c.ListTools(context.Background(), testAgent)
	require.NoError(t, err, "one dead backend must not fail the catalog")

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"archestra__whoami", "slack__post_message"}, names)
}

func TestListToolsRetriesTransientFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	github := &gateway.BackendTarget{Name: "github"}

	client := mocks.NewMockBackendClient(ctrl)
	gomock.InOrder(
		client.EXPECT().ListTools(gomock.Any(), github).Return(nil, gateway.ErrBackendUnavailable),
		client.EXPECT().ListTools(gomock.Any(), github).Return([]gateway.Tool{
			{Name: "create_issue"},
		}, nil),
	)

	c := catalog.New(testBuiltins(), client, []*gateway.BackendTarget{github})
	tools, err := c.ListTools(context.Background(), testAgent)
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "github__create_issue", tools[1].Name)
}

func TestListToolsNoBackends(t *testing.T) {
	t.Parallel()

	c := catalog.New(testBuiltins(), nil, nil)
	tools, err := c.ListTools(context.Background(), testAgent)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "archestra__whoami", tools[0].Name)
}
