/*
Package ports defines the interfaces the command tree view consumes.

These interfaces decouple the reconciliation core from its surroundings, allowing
the same engine to drive a terminal outline, an HTTP API or an MCP tool, with
snapshots acquired from files, Redis or memory.

# Key Interfaces

  - RenderSink: materializes sections and command nodes. Consumed, never implemented, by the core.
  - Scheduler: arms and cancels the delayed deactivation of a highlight.
  - SnapshotSource: yields the raw serialized command tree, if any.
  - ViewStore: persists the saved view state outside the core.
  - DistributedLocker: serializes access to a saved view across processes.
*/
package ports
