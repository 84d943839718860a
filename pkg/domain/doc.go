/*
Package domain contains the core data model of the command tree view.

It defines the decoded snapshot (subsystems plus scheduled commands), the closed
leaf/group Command variant, the positional node identity used as the key into the
view state stores, and the debounce phases of the activity highlight. This package
is kept pure and free of I/O, timers and rendering concerns.

# Key Entities

  - Command: a leaf (with its own activity) or a group (with ordered children), never both.
  - Snapshot: one decoded instance of the whole command tree.
  - NodeID: the path-derived key identifying a tree position across renders.
  - Phase: Inactive, ActiveHeld or PendingDeactivate.
  - ViewState: the saved form of both view state stores.
*/
package domain
