// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails the test unless err is an oops error carrying the
// given code. Codes in this codebase are always strings, even though oops
// stores them as any.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	actual, ok := oopsErr.Code().(string)
	require.True(t, ok, "expected string error code, got %T", oopsErr.Code())
	assert.Equal(t, code, actual)
}

// AssertErrorContext fails the test unless err is an oops error whose context
// contains the given key/value pair.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
