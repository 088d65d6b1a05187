// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
)

// fixedSessionID adapts the gateway's session model to the mark3labs SDK's
// SessionIdManager interface.
//
// Session ownership is inverted relative to the SDK's expectations: the
// gateway's session manager mints the identifier and constructs one
// transport per session BEFORE the SDK ever sees the request, so each
// transport instance serves exactly one identifier. Generate hands the SDK
// the pre-minted identifier and Validate accepts only that identifier;
// everything else is a routing bug upstream in the dispatcher.
type fixedSessionID struct {
	id string
}

func newFixedSessionID(id string) *fixedSessionID {
	return &fixedSessionID{id: id}
}

// Generate returns the pre-minted session identifier. Called by the SDK when
// an initialize request arrives without a session header.
func (f *fixedSessionID) Generate() string {
	return f.id
}

// Validate accepts exactly the session's own identifier. The dispatcher only
// routes matching requests here, so a mismatch means a routing bug.
func (f *fixedSessionID) Validate(sessionID string) (isTerminated bool, err error) {
	if sessionID != f.id {
		return false, fmt.Errorf("session %q not served by this transport", sessionID)
	}
	return false, nil
}

// Terminate reports client-initiated termination as not allowed; the SDK
// maps this to 405. Sessions end only through the idle sweep, the protocol
// has no logout.
func (*fixedSessionID) Terminate(_ string) (isNotAllowed bool, err error) {
	return true, nil
}
