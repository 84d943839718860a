// Package viewstate serializes access to saved views.
//
// A saved view is the blob produced by the reconciler's SaveState: the
// expansion and activity maps. Several dashboard processes may share one
// view through a remote ViewStore, so every read and write of a view id
// happens under a per-id local mutex and, when configured, a distributed
// lock.
package viewstate
