/*
Package cmdtree renders a live view of a robot's command scheduler: one section per
subsystem holding its command tree, plus a section listing the scheduled commands.

The robot publishes the whole tree again and again as a JSON snapshot. Every snapshot that
differs from the previous one rebuilds the view from scratch. Only two things survive a
rebuild: which groups the user expanded, and which commands are highlighted as running.
A highlight is held for a short time after its command stops, so commands that run for a
single scheduler tick stay visible.

# Architecture

The core lives in pkg/ and knows nothing about where snapshots come from or how the view is
drawn:

  - pkg/decoder turns a raw payload into a domain.Snapshot, skipping malformed nodes.
  - pkg/reconciler walks the snapshot into a ports.RenderSink.
  - pkg/expansion and pkg/activity hold the state that survives a rebuild.

Adapters under pkg/adapters implement the ports: snapshot sources (file, redis, exec,
memory), the outline sink, view stores and the HTTP and MCP servers.

# Usage

	sink := outline.New()
	viewer, err := cmdtree.New(sink, cmdtree.WithHold(100*time.Millisecond))
	if err != nil {
		log.Fatal(err)
	}
	defer viewer.Close()

	source := file.NewSource("commands.json", nil)
	if _, err := viewer.Poll(ctx, source); err != nil {
		log.Println(err)
	}
	fmt.Print(sink.Text(termenv.Ascii))

The cmdtree command (cmd/cmdtree) wraps the same viewer with polling, a terminal screen, an
HTTP server and an MCP server.
*/
package cmdtree
