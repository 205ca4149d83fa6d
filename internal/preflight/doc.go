// Package preflight provides readiness checks for the filesystem paths,
// binaries and local endpoints kiteready depends on.
//
// These checks run in two contexts:
//   - The engine oracle calls CheckDirectoryAccess before asking the engine
//     to enable a directory, so permission problems surface with a clear
//     detail instead of an opaque API error.
//   - The CLI "kiteready status" command uses RunAll to display environment
//     health next to the lifecycle state.
package preflight
