// Package render delivers display refreshes to whatever draws the map. The
// engine only ever pushes snapshots; consumers drain them at their own pace.
package render

import (
	"log/slog"

	"github.com/vesselwatch/tracker/internal/channel"
	"github.com/vesselwatch/tracker/pkg/core"
)

// Surface names the display layer a snapshot is meant for.
type Surface string

const (
	SurfaceMap     Surface = "map"
	SurfaceSidebar Surface = "sidebar"
)

// Snapshot is one display refresh.
type Snapshot struct {
	Surface Surface
	Records []core.VesselRecord
}

// ChannelRenderer forwards refreshes over a channel to the UI bridge. A
// full channel drops the snapshot; a newer one is always on the way.
type ChannelRenderer struct {
	out    channel.Channel[Snapshot]
	logger *slog.Logger
}

// NewChannelRenderer creates a renderer with the given buffer size.
func NewChannelRenderer(size int, logger *slog.Logger) *ChannelRenderer {
	return &ChannelRenderer{
		out:    channel.New[Snapshot](size),
		logger: logger,
	}
}

// RefreshMap queues a map refresh.
func (r *ChannelRenderer) RefreshMap(records []core.VesselRecord) {
	r.push(Snapshot{Surface: SurfaceMap, Records: records})
}

// RefreshSidebar queues a sidebar refresh.
func (r *ChannelRenderer) RefreshSidebar(records []core.VesselRecord) {
	r.push(Snapshot{Surface: SurfaceSidebar, Records: records})
}

func (r *ChannelRenderer) push(s Snapshot) {
	if !r.out.TrySend(s) {
		r.logger.Debug("Dropping display snapshot, consumer is behind",
			"surface", s.Surface, "records", len(s.Records))
	}
}

// Snapshots returns the consumer side of the renderer.
func (r *ChannelRenderer) Snapshots() <-chan Snapshot {
	return r.out.Receive()
}

// Pending returns the number of undelivered snapshots.
func (r *ChannelRenderer) Pending() int {
	return r.out.Len()
}

// Close shuts the renderer down.
func (r *ChannelRenderer) Close() {
	r.out.Close()
}
