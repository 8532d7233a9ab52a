package fanscene

import (
	"log/slog"
	"time"
)

// debugStats holds per-frame timing and primitive metrics.
// Only populated when the pipeline's debug mode is on.
type debugStats struct {
	prepareTime   time.Duration
	sceneTime     time.Duration
	bloomTime     time.Duration
	compositeTime time.Duration
	commandCount  int
	triangleCount int
	pointCount    int
}

func (s debugStats) total() time.Duration {
	return s.prepareTime + s.sceneTime + s.bloomTime + s.compositeTime
}

// debugLog emits the stats of one frame at debug level.
func (p *Pipeline) debugLog(stats debugStats) {
	if !p.debug {
		return
	}
	Logger().Debug("frame",
		slog.Duration("prepare", stats.prepareTime),
		slog.Duration("scene", stats.sceneTime),
		slog.Duration("bloom", stats.bloomTime),
		slog.Duration("composite", stats.compositeTime),
		slog.Duration("total", stats.total()),
		slog.Int("commands", stats.commandCount),
		slog.Int("triangles", stats.triangleCount),
		slog.Int("points", stats.pointCount),
	)
}

// debugMaxTreeDepth is the depth above which the scene is reported as suspicious.
const debugMaxTreeDepth = 32

// debugCheckTree warns when the graph grows deeper than debugMaxTreeDepth.
func debugCheckTree(s *Scene) {
	if d := s.MaxDepth(); d > debugMaxTreeDepth {
		Logger().Warn("scene tree is unusually deep", "depth", d, "threshold", debugMaxTreeDepth)
	}
}
