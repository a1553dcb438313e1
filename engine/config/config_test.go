package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string     `toml:"name" yaml:"name"`
	Samples int        `toml:"samples" yaml:"samples"`
	Color   [4]float32 `toml:"color" yaml:"color"`
	Nested  struct {
		Enable bool    `toml:"enable" yaml:"enable"`
		Radius float32 `toml:"radius" yaml:"radius"`
	} `toml:"nested" yaml:"nested"`
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("a/b/settings.TOML")
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, f)

	f, err = FormatOf("settings.yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatOf("settings.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	in := sample{Name: "studio", Samples: 16, Color: [4]float32{0.1, 0.2, 0.3, 1}}
	in.Nested.Enable = true
	in.Nested.Radius = 0.5

	for _, name := range []string{"settings.toml", "settings.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(path, in))

			var out sample
			require.NoError(t, Load(path, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	require.NoError(t, os.WriteFile(path, []byte("samples = 4\n"), 0o644))

	out := sample{Name: "default", Samples: 1}
	require.NoError(t, Load(path, &out))
	assert.Equal(t, "default", out.Name)
	assert.Equal(t, 4, out.Samples)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	var out sample

	assert.ErrorIs(t, Load(filepath.Join(dir, "settings.ini"), &out), ErrUnsupportedFormat)
	assert.ErrorIs(t, Load(filepath.Join(dir, "missing.toml"), &out), os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("samples: [1, 2\n"), 0o644))
	assert.Error(t, Load(bad, &out))
}

func TestWatchCallsOnChangeUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("samples = 1\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	var last atomic.Int32
	require.NoError(t, Watch(ctx, path, func() error {
		var s sample
		if err := Load(path, &s); err != nil {
			return err
		}
		last.Store(int32(s.Samples))
		calls.Add(1)
		return nil
	}))

	require.NoError(t, os.WriteFile(path, []byte("samples = 8\n"), 0o644))
	assert.Eventually(t, func() bool { return last.Load() == 8 }, 2*time.Second, 10*time.Millisecond)

	// Other files in the directory are ignored.
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte("x = 1\n"), 0o644))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, calls.Load())
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "settings.toml"), func() error { return nil })
	assert.Error(t, err)
}
