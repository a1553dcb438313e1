package profiler

import (
	"bytes"
	"fmt"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/olekukonko/tablewriter"
)

// Source is what the profiler samples each interval. SceneRenderer satisfies it.
type Source interface {
	Statistics() scene.Statistics
	ResetStatistics()
}

// Profiler tracks frame rate, memory and renderer statistics.
// Outputs a table to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	source  Source
	logger  log.Logger
	lastFPS float64
	now     func() time.Time
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		logger:         log.New("profiler"),
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// FPS returns the frame rate measured over the last completed interval.
func (p *Profiler) FPS() float64 {
	return p.lastFPS
}

// Tick should be called once per frame to track frame timing.
// When the update interval has elapsed it logs FPS, heap usage, allocation rate, GC pauses and,
// with a source, the renderer statistics of the interval, which are then reset.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	p.lastFPS = float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	var buf bytes.Buffer
	table := newTable(&buf, "Metric", "Value")
	table.Append([]string{"FPS", fmt.Sprintf("%.2f", p.lastFPS)})
	table.Append([]string{"Heap", fmt.Sprintf("%.2f MB", allocMB)})
	table.Append([]string{"Alloc rate", fmt.Sprintf("%.2f MB/s", allocRateMB)})
	table.Append([]string{"GC", fmt.Sprintf("%d (last %d µs, max %d µs)", gcCount, lastPauseUs, maxPauseUs)})
	table.Append([]string{"Sys", fmt.Sprintf("%.2f MB", sysMB)})
	table.Render()

	if p.source != nil {
		stats := p.source.Statistics()
		p.source.ResetStatistics()
		buf.WriteString(StatisticsTable(stats))
	}
	p.logger.Noticef("frame statistics\n%s", buf.String())

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// StatisticsTable renders the renderer counters as a table.
//
// Parameters:
//   - stats: the counters to render
//
// Returns:
//   - string: the rendered table
func StatisticsTable(stats scene.Statistics) string {
	var buf bytes.Buffer
	table := newTable(&buf, "Renderer", "Counter", "Value")
	r3 := stats.Renderer3D
	r2 := stats.Renderer2D
	rows := [][]string{
		{"3D", "---", ""},
		{"", "Meshes", fmt.Sprint(r3.MeshCount)},
		{"", "Culled", fmt.Sprint(stats.CulledMeshes)},
		{"", "Geometry draws", fmt.Sprint(r3.GeometryDrawCalls)},
		{"", "Shadow draws", fmt.Sprint(r3.ShadowDrawCalls)},
		{"", "Skybox draws", fmt.Sprint(r3.SkyboxDrawCalls)},
		{"", "IBL draws", fmt.Sprint(r3.IBLDrawCalls)},
		{" ", " ", " "},
		{"2D", "---", ""},
		{"", "Draw calls", fmt.Sprint(r2.DrawCalls)},
		{"", "Quads", fmt.Sprint(r2.QuadCount)},
		{"", "Circles", fmt.Sprint(r2.CircleCount)},
		{"", "Lines", fmt.Sprint(r2.LineCount)},
		{"", "Vertices", fmt.Sprint(r2.VertexCount())},
		{"", "Indices", fmt.Sprint(r2.IndexCount())},
	}
	table.AppendBulk(rows)
	table.SetFooter([]string{"Total", fmt.Sprintf("%d frames", stats.Frames), fmt.Sprintf("%d draws", stats.TotalDrawCalls())})
	table.Render()
	return buf.String()
}

// PassOrderTable renders a compiled pass order as a numbered table.
func PassOrderTable(order []string) string {
	var buf bytes.Buffer
	table := newTable(&buf, "#", "Pass")
	for i, name := range order {
		table.Append([]string{fmt.Sprint(i), name})
	}
	table.Render()
	return buf.String()
}

func newTable(buf *bytes.Buffer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}
