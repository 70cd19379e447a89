// SPDX-License-Identifier: MPL-2.0

// Package modgraph builds module graphs from three injected collaborators.
//
// A [Graph] owns no filesystem knowledge. It is created with:
//
//   - a [CachedFunc] that returns an existing record for a specifier, if any;
//   - a [ResolveFunc] that maps (referrer, specifier) to a canonical path;
//   - a [LoadFunc] that populates a record's export bindings.
//
// Records ([Module]) carry parent/child provenance, an export container and a
// loaded flag. [Module.Require] is resolve-and-load: a cache hit returns the
// cached bindings without loading again, a miss constructs a child of the
// referrer and loads it. The load delegate registers the record in its cache
// before executing the body, which is what lets circular requires observe a
// live, partially populated record instead of recursing.
//
// [Graph.RunMain] loads an entry module and publishes it as the graph's entry
// reference. Records loaded later observe that reference through [Module.Main].
// The reference is per Graph, so independent graphs never see each other's
// entry.
//
// Loading a record twice is a programming error and panics with
// [*ReentrantLoadViolation].
//
// A Graph is not safe for concurrent use.
package modgraph
