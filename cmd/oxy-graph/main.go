package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "oxy-graph"
	app.Usage = "render-graph driven scene renderer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable debug logging",
		},
	}

	configFlag := cli.StringFlag{
		Name:  "config, c",
		Usage: "settings file (.toml, .yaml or .yml)",
	}
	forwardFlag := cli.BoolFlag{
		Name:  "forward",
		Usage: "use the forward path instead of deferred hybrid",
	}

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "open a window and render the demo scene",
			Description: `
Render the demo scene through the WebGPU backend. Drag with the left button to
orbit, the right button to pan and scroll to zoom. Keys: M render mode, G grid,
S SSGI, A GTAO, D depth view, B G-buffer debug view, O outline overlay,
P profiler.

When --config is given the file is watched and scene settings are reloaded on save.`,
			Flags: []cli.Flag{
				configFlag,
				forwardFlag,
				cli.IntFlag{
					Name:  "width",
					Usage: "window width, overrides the config",
				},
				cli.IntFlag{
					Name:  "height",
					Usage: "window height, overrides the config",
				},
			},
			Action: runViewer,
		},
		{
			Name:  "plan",
			Usage: "build one frame headless and print its pass order and backend trace",
			Flags: []cli.Flag{
				configFlag,
				forwardFlag,
				cli.IntFlag{
					Name:  "meshes, n",
					Value: 16,
					Usage: "number of demo meshes submitted",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 1,
					Usage: "frames rendered before reporting",
				},
				cli.IntFlag{
					Name:  "width",
					Value: 1280,
					Usage: "viewport width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 720,
					Usage: "viewport height",
				},
				cli.BoolFlag{
					Name:  "ssgi",
					Usage: "enable screen-space global illumination",
				},
				cli.BoolFlag{
					Name:  "gtao",
					Usage: "enable ground-truth ambient occlusion",
				},
				cli.BoolFlag{
					Name:  "trace",
					Usage: "print every backend call",
				},
			},
			Action: planFrame,
		},
		{
			Name:      "shaders",
			Usage:     "list the bind group layouts of the standard pipelines",
			ArgsUsage: "[pipeline_key ...]",
			Action:    listShaders,
		},
		{
			Name:      "config",
			Usage:     "write the default settings to a file",
			ArgsUsage: "out.toml|out.yaml",
			Action:    writeDefaultConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
