// Package staging records the project mutations chosen during one CLI
// invocation without performing any of them.
//
// A Store holds three ordered collections: file changes, package installs and
// commands. Entries that target the same logical resource are merged when
// they are staged, so the Store always describes the exact set of operations
// the flush pipeline will run.
//
// Key responsibilities:
//   - Validate and normalize staged paths, package names and constraints
//   - Merge overlapping entries (per-collection merge functions)
//   - Render a deterministic summary for the confirmation prompt
//   - Hand each collection to the flush pipeline exactly once (Drain*)
package staging
