package scene

import "github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"

// Statistics is a snapshot of the renderer counters since the last ResetStatistics.
type Statistics struct {
	Renderer2D passes.Renderer2DStatistics
	Renderer3D passes.Statistics

	// Frames counts flushes.
	Frames uint32

	// CulledMeshes counts submitted commands that failed the frustum test.
	CulledMeshes uint32
}

// TotalDrawCalls returns the 3D draw calls plus the 2D batch draw calls.
func (s Statistics) TotalDrawCalls() uint32 {
	return s.Renderer3D.TotalDrawCalls() + s.Renderer2D.DrawCalls
}
