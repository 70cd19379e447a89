// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv,
// SetConfigHome), directory changes (MustChdir) and module trees written to an
// in-memory or on-disk filesystem (MemFS, WriteTree, MustWriteTree).
package testutil
