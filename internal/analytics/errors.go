// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package analytics

import "errors"

// ErrNotFound indicates the requested record does not exist, or is not owned
// by the requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")
