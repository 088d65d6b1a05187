// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package env abstracts environment variable access so that code reading the
// environment can be tested without mutating the process environment.
package env

import "os"

//go:generate mockgen -destination=mocks/mock_env.go -package=mocks -source=env.go Reader

// Reader reads environment variables.
type Reader interface {
	// Getenv returns the value of the named variable, or "" if unset.
	Getenv(key string) string
}

// OSReader reads from the real process environment.
type OSReader struct{}

// Getenv implements Reader.
func (*OSReader) Getenv(key string) string {
	return os.Getenv(key)
}

// MapReader reads from a fixed map. Intended for tests.
type MapReader map[string]string

// Getenv implements Reader.
func (m MapReader) Getenv(key string) string {
	return m[key]
}
