package main

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/model"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/chewxy/math32"
)

// palette is the PBR look of the demo cubes, cycled by index.
var palette = []struct {
	albedo    [3]float32
	metallic  float32
	roughness float32
}{
	{[3]float32{0.9, 0.2, 0.2}, 0, 0.4},
	{[3]float32{0.95, 0.8, 0.4}, 1, 0.3},
	{[3]float32{0.2, 0.5, 0.9}, 0, 0.8},
	{[3]float32{0.8, 0.8, 0.8}, 1, 0.1},
}

// demoScene is a grid of spinning cubes on a ground plane, lit by a sun and a ring of point lights.
// An optional skinned column sways beside the grid.
type demoScene struct {
	mu    *sync.Mutex
	cfg   demoConfig
	angle float32

	cubes  []model.Model
	glass  model.Model
	ground model.Model
	column model.Model
	pose   *model.Skeleton
	env    light.Environment
}

func newDemoScene(device gpu.Device, cfg demoConfig) (*demoScene, error) {
	d := &demoScene{mu: &sync.Mutex{}, cfg: cfg}
	d.cfg.Meshes = max(cfg.Meshes, 0)
	d.cfg.Spacing = common.Coalesce(cfg.Spacing, 2.5)

	for i, p := range palette {
		cube, err := model.NewCube(device, 1,
			model.WithName(fmt.Sprintf("cube.%d", i)),
			model.WithMaterials(material.NewMaterial(material.WithPBR(p.albedo, p.metallic, p.roughness))))
		if err != nil {
			d.Release()
			return nil, fmt.Errorf("demo: %w", err)
		}
		d.cubes = append(d.cubes, cube)
	}

	var err error
	d.ground, err = model.NewPlane(device, 60,
		model.WithName("ground"),
		model.WithMaterials(material.NewMaterial(material.WithPBR([3]float32{0.35, 0.35, 0.35}, 0, 0.9))))
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("demo: %w", err)
	}
	if cfg.Transparent {
		d.glass, err = model.NewCube(device, 1.5,
			model.WithName("glass"),
			model.WithMaterials(material.NewMaterial(material.WithPhong([4]float32{0.6, 0.9, 1, 0.35}, [3]float32{1, 1, 1}, 64))))
		if err != nil {
			d.Release()
			return nil, fmt.Errorf("demo: %w", err)
		}
	}

	if cfg.Column {
		d.column, err = model.NewSkinnedColumn(device, 0.6, 3, 8,
			model.WithMaterials(material.NewMaterial(material.WithPBR([3]float32{0.3, 0.8, 0.4}, 0, 0.5))))
		if err != nil {
			d.Release()
			return nil, fmt.Errorf("demo: %w", err)
		}
		d.pose = d.column.Skeleton().Clone()
	}

	d.env = d.lights()
	return d, nil
}

func (d *demoScene) lights() light.Environment {
	lights := []light.Light{
		light.NewLight(light.LightTypeDirectional,
			light.WithDirection(-0.4, -1, -0.3),
			light.WithColor(1, 0.95, 0.85),
			light.WithIntensity(3),
			light.WithCastsShadows(true)),
	}
	n := d.cfg.PointLights
	ring := d.extent() + 2
	for i := range n {
		a := 2 * math32.Pi * float32(i) / float32(n)
		c := palette[i%len(palette)].albedo
		lights = append(lights, light.NewLight(light.LightTypePoint,
			light.WithPosition(ring*math32.Cos(a), 2, ring*math32.Sin(a)),
			light.WithColor(c[0], c[1], c[2]),
			light.WithIntensity(4),
			light.WithRange(ring*1.5)))
	}
	return light.NewEnvironment(lights...)
}

// extent is half the side of the cube grid.
func (d *demoScene) extent() float32 {
	return float32(d.side()-1) * d.cfg.Spacing / 2
}

func (d *demoScene) side() int {
	return max(int(math32.Ceil(math32.Sqrt(float32(d.cfg.Meshes)))), 1)
}

func (d *demoScene) Environment() light.Environment {
	return d.env
}

// Tick advances the spin. Runs on the engine's tick goroutine.
func (d *demoScene) Tick(dt float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.angle += d.cfg.SpinDegrees * math32.Pi / 180 * dt
	if d.pose != nil {
		d.pose.Bones[1].LocalTransform.Rotation = model.AxisAngle(common.Vec3{0, 0, 1}, math32.Sin(d.angle)*0.6)
	}
}

// bones returns the skinning matrices of the column's current pose.
func (d *demoScene) bones() [][16]float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pose.Pose()
}

// Submissions returns the frame's cube instances. Every OutlineEvery-th cube is outlined.
func (d *demoScene) Submissions() []scene.MeshSubmission {
	d.mu.Lock()
	angle := d.angle
	d.mu.Unlock()

	side, extent := d.side(), d.extent()
	items := make([]scene.MeshSubmission, 0, d.cfg.Meshes)
	for i := range d.cfg.Meshes {
		x := float32(i%side)*d.cfg.Spacing - extent
		z := float32(i/side)*d.cfg.Spacing - extent
		var m common.Mat4
		common.BuildModelMatrix(m[:], x, 0.5, z, 0, angle+float32(i)*0.3, 0, 1, 1, 1)
		items = append(items, scene.MeshSubmission{
			Model:       d.cubes[i%len(d.cubes)],
			Transform:   m,
			ObjectID:    int32(i + 1),
			DrawOutline: d.cfg.OutlineEvery > 0 && i%d.cfg.OutlineEvery == 0,
		})
	}
	return items
}

// Submit queues the whole scene. It is the engine's frame callback.
func (d *demoScene) Submit(f engine.Frame) {
	f.Scene.SubmitMeshes(d.Submissions())
	f.Scene.SubmitMesh(d.ground, common.Identity4(), 0, false)

	top := d.extent() + d.cfg.Spacing
	if d.column != nil {
		f.Scene.SubmitSkinnedMesh(d.column, common.Translation(top, 0, 0), int32(d.cfg.Meshes+2), d.bones(), false)
	}
	if d.glass != nil {
		f.Scene.SubmitMesh(d.glass, common.Translation(0, 3, 0), int32(d.cfg.Meshes+1), false)
		var ring common.Mat4
		common.BuildModelMatrix(ring[:], 0, 0.01, 0, math32.Pi/2, 0, 0, 3, 3, 1)
		f.Scene.DrawCircle(ring, [4]float32{0.6, 0.9, 1, 1}, 0.1, 0.02)
	}

	f.Scene.DrawLine(common.Vec3{0, 0.02, 0}, common.Vec3{top, 0.02, 0}, [4]float32{1, 0.2, 0.2, 1})
	f.Scene.DrawLine(common.Vec3{0, 0.02, 0}, common.Vec3{0, top, 0}, [4]float32{0.2, 1, 0.2, 1})
	f.Scene.DrawLine(common.Vec3{0, 0.02, 0}, common.Vec3{0, 0.02, top}, [4]float32{0.2, 0.4, 1, 1})
}

func (d *demoScene) Release() {
	for _, c := range d.cubes {
		c.Release()
	}
	d.cubes = nil
	for _, m := range []model.Model{d.glass, d.ground, d.column} {
		if m != nil {
			m.Release()
		}
	}
	d.glass, d.ground, d.column = nil, nil, nil
}
