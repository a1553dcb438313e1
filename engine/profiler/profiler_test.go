package profiler

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) record(v ...any) { l.lines = append(l.lines, fmt.Sprint(v...)) }
func (l *recordingLogger) recordf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}
func (l *recordingLogger) Debug(v ...any)                   { l.record(v...) }
func (l *recordingLogger) Debugf(format string, v ...any)   { l.recordf(format, v...) }
func (l *recordingLogger) Info(v ...any)                    { l.record(v...) }
func (l *recordingLogger) Infof(format string, v ...any)    { l.recordf(format, v...) }
func (l *recordingLogger) Notice(v ...any)                  { l.record(v...) }
func (l *recordingLogger) Noticef(format string, v ...any)  { l.recordf(format, v...) }
func (l *recordingLogger) Warning(v ...any)                 { l.record(v...) }
func (l *recordingLogger) Warningf(format string, v ...any) { l.recordf(format, v...) }
func (l *recordingLogger) Error(v ...any)                   { l.record(v...) }
func (l *recordingLogger) Errorf(format string, v ...any)   { l.recordf(format, v...) }

type fakeSource struct {
	stats  scene.Statistics
	resets int
}

func (s *fakeSource) Statistics() scene.Statistics { return s.stats }
func (s *fakeSource) ResetStatistics()             { s.resets++ }

func TestTickReportsOncePerInterval(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	logger := &recordingLogger{}
	src := &fakeSource{stats: scene.Statistics{
		Frames:     60,
		Renderer3D: passes.Statistics{MeshCount: 120, GeometryDrawCalls: 90},
		Renderer2D: passes.Renderer2DStatistics{DrawCalls: 2, QuadCount: 3},
	}}
	p := NewProfiler(WithInterval(time.Second), WithSource(src), WithLogger(logger), withClock(clock))

	for i := 0; i < 59; i++ {
		now = now.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	now = time.Unix(2, 0)
	require.True(t, p.Tick())

	assert.InDelta(t, 30.0, p.FPS(), 0.001)
	assert.Equal(t, 1, src.resets)
	require.Len(t, logger.lines, 1)
	report := logger.lines[0]
	assert.Contains(t, report, "FPS")
	assert.Contains(t, report, "30.00")
	assert.Contains(t, report, "Geometry draws")
	assert.Contains(t, report, "92 draws")

	now = now.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestStatisticsTable(t *testing.T) {
	stats := scene.Statistics{
		Frames:       3,
		CulledMeshes: 4,
		Renderer3D:   passes.Statistics{ShadowDrawCalls: 7},
		Renderer2D:   passes.Renderer2DStatistics{QuadCount: 2, LineCount: 1, DrawCalls: 2},
	}
	out := StatisticsTable(stats)
	assert.Contains(t, out, "Culled")
	assert.Contains(t, out, "3 frames")
	assert.Contains(t, out, "9 draws")
	// Two quads and one line: 10 vertices, 12 indices.
	assert.Regexp(t, `Vertices\s*\|\s*10\s`, out)
	assert.Regexp(t, `Indices\s*\|\s*12\s`, out)
}

func TestPassOrderTable(t *testing.T) {
	out := PassOrderTable([]string{passes.ShadowPassName, passes.GBufferPassName, passes.LightingPassName})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Greater(t, len(lines), 3)
	assert.Less(t, strings.Index(out, passes.ShadowPassName), strings.Index(out, passes.LightingPassName))
}
