// Package storage holds the working files of in-flight voice messages.
//
// Each voice message gets one working file named after its unique
// identifier (see Key). Backends register a factory under a provider name:
//
//   - local: files under a base directory on the OS filesystem
//   - memory: an in-memory filesystem, for tests and dry runs
//
// Both live in storage/local and are built on afero.
//
//	storage:
//	  provider: local
//	  base_path: downloads
package storage
