package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/engine"
	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/Carmen-Shannon/oxy-graph/engine/window"
)

// debugModeCount is the number of G-buffer debug views including DebugNone.
const debugModeCount = int(passes.DebugGTAO) + 1

// toggle applies a key to settings. It reports false for unbound keys.
func toggle(settings *scene.Settings, key window.Key) bool {
	switch key {
	case 'M':
		if settings.RenderMode == scene.RenderModeForward {
			settings.RenderMode = scene.RenderModeDeferredHybrid
		} else {
			settings.RenderMode = scene.RenderModeForward
		}
	case 'G':
		settings.Grid.ShowInfiniteGrid = !settings.Grid.ShowInfiniteGrid
	case 'S':
		settings.SSGI.Enable = !settings.SSGI.Enable
	case 'A':
		settings.GTAO.Enable = !settings.GTAO.Enable
	case 'D':
		settings.Debug.ShowDepth = !settings.Debug.ShowDepth
	case 'B':
		settings.GBufferDebugMode = passes.GBufferDebugMode((int(settings.GBufferDebugMode) + 1) % debugModeCount)
	default:
		return false
	}
	return true
}

func title(settings scene.Settings, overlay bool) string {
	t := fmt.Sprintf("oxy-graph | %s", settings.RenderMode)
	if settings.GBufferDebugMode != passes.DebugNone {
		t += " | debug " + settings.GBufferDebugMode.String()
	}
	if settings.SSGI.Enable {
		t += " | ssgi"
	}
	if settings.GTAO.Enable {
		t += " | gtao"
	}
	if overlay {
		t += " | overlay"
	}
	return t
}

// bindInput wires orbit controls and setting toggles. Callbacks run on the window goroutine;
// the engine and camera are safe to touch from there.
func bindInput(win window.Window, eng engine.Engine, ctrl camera.OrbitController, profiling bool) {
	overlay := false
	win.SetTitle(title(eng.Settings(), overlay))

	win.SetDragCallback(func(button window.MouseButton, dx, dy float32) {
		if ctrl == nil {
			return
		}
		switch button {
		case window.MouseLeft:
			ctrl.Rotate(dx, dy)
		case window.MouseRight, window.MouseMiddle:
			ctrl.Pan(dx, dy)
		}
	})
	win.SetScrollCallback(func(delta float32) {
		if ctrl != nil {
			ctrl.Zoom(delta)
		}
	})
	win.SetKeyCallback(func(key window.Key) {
		settings := eng.Settings()
		switch key {
		case 'O':
			overlay = !overlay
			eng.SetOverlay(overlay)
		case 'P':
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
			return
		default:
			if !toggle(&settings, key) {
				return
			}
			eng.ApplySettings(settings)
		}
		win.SetTitle(title(settings, overlay))
	})
}
