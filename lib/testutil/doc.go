// Copyright 2026 The meshnode Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for meshnode packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when a test needs
// distinguishable message or device ids across subtests.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no meshnode-internal dependencies.
package testutil
