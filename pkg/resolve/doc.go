// SPDX-License-Identifier: MPL-2.0

// Package resolve maps import specifiers to canonical module files.
//
// A [Resolver] classifies every specifier before touching the filesystem:
//
//   - Builtin names are returned verbatim and never probed.
//   - Relative ("./x", "../x", ".", "..") and absolute specifiers are joined
//     against the referrer's directory, or the working directory when there is
//     no referrer, and then file-resolved.
//   - Bare specifiers are searched in the "node_modules" directory of the
//     referrer's directory and every ancestor up to the filesystem root.
//
// File resolution of a candidate path tries, in order: the exact file, the
// candidate plus each registered extension (registration order is the
// tie-break), the same two checks against "<candidate>/index", and finally the
// "main" field of "<candidate>/package.json".
//
// "Does not exist" is a negative probe result. Every other filesystem error is
// returned as-is and stops resolution.
package resolve
