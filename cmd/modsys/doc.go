// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modsys.
//
// This package implements the Cobra command hierarchy for the modsys CLI:
// run loads an entry module and prints its exports, resolve explains how a
// specifier maps to a file, graph shows the module tree, builtins lists the
// reserved names, and config manages the CUE configuration file.
//
// Exit codes: 0 on success, 1 for generic failures, 2 when a specifier cannot
// be resolved, 3 when a module was found but failed to load.
package cmd
