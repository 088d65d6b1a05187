// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package audit defines the append-only tool-call audit model.
//
// One record is written per initialize, tools/list and tools/call invocation.
// Persistence is best-effort: a failing recorder is logged and swallowed so
// the protocol response never depends on audit-log health.
package audit
