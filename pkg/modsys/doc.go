// SPDX-License-Identifier: MPL-2.0

// Package modsys is a filesystem-backed module system built on
// [github.com/invowk/modsys/pkg/modgraph] and
// [github.com/invowk/modsys/pkg/resolve].
//
// A [System] supplies the graph's three collaborators. Its cache is keyed by
// canonical path and is populated before a module body runs. Its loader picks
// a [Handler] by file extension:
//
//	.lua               executable source run in a shared Lua state
//	.json .cue .toml   structured data, decoded into plain Go values
//	.yaml .yml         structured data
//	.sh                POSIX shell run by an embedded interpreter
//	.wasm              WebAssembly; exported functions become [HostFunc] values
//
// Files with an unregistered extension fall back to the default handler.
// Builtin names (path, module, and any added with [WithBuiltin]) are never
// probed on disk and are served from a permanent table.
//
// A System is single threaded. Embedders must not interleave RunMain or
// Require calls against one System.
package modsys
