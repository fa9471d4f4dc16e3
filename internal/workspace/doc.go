// Package workspace owns the temporary directory a single run materializes
// into, and copies edits from it back into the working tree.
//
// A [Session] is created under a fresh uuid-based name with os.Mkdir, so it
// can never alias an existing directory. Callers defer [Session.Close]
// immediately after [New] returns; Close removes the whole tree and only
// logs if removal fails.
package workspace
