package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/config"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderModeText(t *testing.T) {
	var m RenderMode
	require.NoError(t, m.UnmarshalText([]byte("Deferred")))
	assert.Equal(t, RenderModeDeferredHybrid, m)
	require.NoError(t, m.UnmarshalText([]byte("forward")))
	assert.Equal(t, RenderModeForward, m)
	assert.Error(t, m.UnmarshalText([]byte("raytraced")))

	text, err := RenderModeDeferredHybrid.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "deferred_hybrid", string(text))
}

func TestFrameFlags(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, passes.FrameFlags{UseDeferred: true}, s.frameFlags())

	s.GBufferDebugMode = passes.DebugSSGI
	flags := s.frameFlags()
	assert.True(t, flags.UseSSGI)
	assert.False(t, flags.UseGTAO)
	assert.True(t, flags.ShowGBufferDebug)

	s.RenderMode = RenderModeForward
	s.GTAO.Enable = true
	assert.Equal(t, passes.FrameFlags{}, s.frameFlags())
}

func TestSettingsFileRoundTrip(t *testing.T) {
	in := DefaultSettings()
	in.RenderMode = RenderModeForward
	in.GBufferDebugMode = passes.DebugNormal
	in.SSGI.Enable = true
	in.SSGI.SampleCount = 24
	in.Grid.ShowInfiniteGrid = false
	in.Skybox.Procedural = true

	for _, name := range []string{"render.toml", "render.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, config.Save(path, in))

			out := DefaultSettings()
			require.NoError(t, config.Load(path, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestSettingsFileInlinesFeatureKnobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.toml")
	doc := `render_mode = "deferred"

[ssgi]
enable = true
sample_count = 32

[lighting]
enable_shadows = false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out := DefaultSettings()
	require.NoError(t, config.Load(path, &out))
	assert.Equal(t, RenderModeDeferredHybrid, out.RenderMode)
	assert.True(t, out.SSGI.Enable)
	assert.Equal(t, 32, out.SSGI.SampleCount)
	assert.False(t, out.Lighting.EnableShadows)
	assert.Equal(t, DefaultSettings().Lighting.ShadowMapSize, out.Lighting.ShadowMapSize)
}
