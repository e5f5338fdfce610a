// Package renderer draws the particle field, its connection lines, and the
// effect sparks with raylib. It owns the render-scale target: the scene is
// rasterized at a fraction of the window resolution and stretched to full
// size, which is how the quality controller's render scale lever trades
// sharpness for fill-rate.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/filament/effects"
	"github.com/pthm-cable/filament/graph"
	"github.com/pthm-cable/filament/quality"
	"github.com/pthm-cable/filament/spatial"
)

// Palette.
var (
	particleColor = rl.Color{R: 120, G: 200, B: 255, A: 255}
	linkColor     = rl.Color{R: 80, G: 160, B: 255, A: 255}
	pulseColor    = rl.Color{R: 255, G: 190, B: 90, A: 255}
	flashColor    = rl.Color{R: 240, G: 240, B: 255, A: 255}
)

// Scene renders into an internal texture sized by the render scale.
type Scene struct {
	width, height int32
	scale         float64
	target        rl.RenderTexture2D
	camera        rl.Camera3D

	sparkViews []effects.View
}

// NewScene creates a scene for the given window size and initial render
// scale. Must be called after rl.InitWindow.
func NewScene(width, height int32, scale float64, cameraDistance float32) *Scene {
	s := &Scene{
		width:  width,
		height: height,
		camera: rl.Camera3D{
			Position:   rl.Vector3{X: cameraDistance, Y: cameraDistance * 0.4, Z: cameraDistance},
			Target:     rl.Vector3{},
			Up:         rl.Vector3{Y: 1},
			Fovy:       50,
			Projection: rl.CameraPerspective,
		},
	}
	s.SetRenderScale(scale)
	return s
}

// SetRenderScale recreates the render target when the scale changes.
// Scale multiplies the window's pixel dimensions.
func (s *Scene) SetRenderScale(scale float64) {
	if scale == s.scale {
		return
	}
	if s.target.ID != 0 {
		rl.UnloadRenderTexture(s.target)
	}
	s.scale = scale
	w := int32(float64(s.width) * scale)
	h := int32(float64(s.height) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	s.target = rl.LoadRenderTexture(w, h)
	rl.SetTextureFilter(s.target.Texture, rl.FilterBilinear)
}

// RenderScale returns the current render scale.
func (s *Scene) RenderScale() float64 {
	return s.scale
}

// Render rasterizes the frame into the scaled target. Call between the
// host's frame setup and Blit.
func (s *Scene) Render(positions []spatial.Vec3, edges []graph.Edge, fx *effects.System, settings quality.Settings) {
	rl.UpdateCamera(&s.camera, rl.CameraOrbital)

	rl.BeginTextureMode(s.target)
	rl.ClearBackground(rl.Color{R: 8, G: 10, B: 18, A: 255})
	rl.BeginMode3D(s.camera)

	s.drawLinks(positions, edges)
	s.drawParticles(positions, settings.EffectsLevel)
	s.drawSparks(fx)

	rl.EndMode3D()
	rl.EndTextureMode()
}

// Blit stretches the scaled target over the full window. Call inside
// rl.BeginDrawing.
func (s *Scene) Blit() {
	src := rl.Rectangle{
		Width:  float32(s.target.Texture.Width),
		Height: -float32(s.target.Texture.Height), // render textures are y-flipped
	}
	dst := rl.Rectangle{Width: float32(s.width), Height: float32(s.height)}
	rl.DrawTexturePro(s.target.Texture, src, dst, rl.Vector2{}, 0, rl.White)
}

// drawLinks renders connection lines with strength-scaled opacity.
func (s *Scene) drawLinks(positions []spatial.Vec3, edges []graph.Edge) {
	for _, e := range edges {
		a := positions[e.A]
		b := positions[e.B]
		c := linkColor
		c.A = uint8(40 + e.Strength*200)
		rl.DrawLine3D(
			rl.Vector3{X: a.X, Y: a.Y, Z: a.Z},
			rl.Vector3{X: b.X, Y: b.Y, Z: b.Z},
			c,
		)
	}
}

// drawParticles renders the field. Higher effects tiers get volumetric
// dots instead of bare points.
func (s *Scene) drawParticles(positions []spatial.Vec3, effectsLevel int) {
	if effectsLevel >= quality.EffectsLow {
		for _, p := range positions {
			rl.DrawSphereEx(rl.Vector3{X: p.X, Y: p.Y, Z: p.Z}, 0.8, 4, 6, particleColor)
		}
		return
	}
	for _, p := range positions {
		rl.DrawPoint3D(rl.Vector3{X: p.X, Y: p.Y, Z: p.Z}, particleColor)
	}
}

// drawSparks renders the transient effects with lifetime fade.
func (s *Scene) drawSparks(fx *effects.System) {
	s.sparkViews = fx.CollectInto(s.sparkViews[:0])
	for _, v := range s.sparkViews {
		var c rl.Color
		var radius float32
		switch v.Kind {
		case effects.KindFlash:
			c = flashColor
			radius = 1.4 * v.Fade
		default:
			c = pulseColor
			radius = 0.6 * v.Fade
		}
		c.A = uint8(v.Fade * 230)
		rl.DrawSphereEx(rl.Vector3{X: v.X, Y: v.Y, Z: v.Z}, radius, 4, 6, c)
	}
}

// Unload releases the render target.
func (s *Scene) Unload() {
	if s.target.ID != 0 {
		rl.UnloadRenderTexture(s.target)
	}
}
