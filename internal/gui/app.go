package gui

import (
	"errors"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/cradle/internal/audio"
	"github.com/san-kum/cradle/internal/logger"
	"github.com/san-kum/cradle/internal/metrics"
	"github.com/san-kum/cradle/internal/sim"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
	ColBall    = rl.NewColor(200, 205, 215, 255)
	ColString  = rl.NewColor(110, 110, 110, 255)
)

const (
	screenWidth  = 1280
	screenHeight = 720
	maxTelemetry = 200
	fontPath     = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
)

// App is the raylib front end. The settings panel edits the cradle while it is
// stopped; space toggles it.
type App struct {
	Cradle *sim.Cradle
	Dt     float64
	Camera rl.Camera3D
	Font   rl.Font
	Audio  *audio.Processor
	Log    *logger.Logger

	ParamSel  int
	Telemetry []float64
	Message   string

	CamPosTarget rl.Vector3
	CamTgtTarget rl.Vector3
}

func initWindow() {
	rl.InitWindow(screenWidth, screenHeight, "cradle")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont loads Liberation Mono when installed and falls back to the raylib
// default font.
func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp wires a cradle into a window. proc may be nil to run silently.
func NewApp(c *sim.Cradle, dt float64, proc *audio.Processor, log *logger.Logger) *App {
	app := &App{
		Cradle:    c,
		Dt:        dt,
		Font:      loadFont(),
		Audio:     proc,
		Log:       log,
		Telemetry: make([]float64, 0, maxTelemetry),
	}
	app.resetCamera()
	return app
}

// Run opens the window and blocks until it is closed.
func Run(c *sim.Cradle, dt float64, proc *audio.Processor, log *logger.Logger) {
	initWindow()
	defer rl.CloseWindow()

	app := NewApp(c, dt, proc, log)
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

// resetCamera frames the whole row, including the widest possible swing.
func (a *App) resetCamera() {
	s := a.Cradle.Settings()
	p := s.Physics
	reach := float64(s.Balls-1)/2*p.Spacing() + p.ArmLength + p.Radius
	distance := float32(reach * 2.4)
	centerY := float32(-p.ArmLength / 2)

	a.Camera = rl.NewCamera3D(
		rl.NewVector3(0, centerY, distance),
		rl.NewVector3(0, centerY, 0),
		rl.NewVector3(0, 1, 0),
		45.0,
		rl.CameraPerspective,
	)
	a.CamPosTarget = a.Camera.Position
	a.CamTgtTarget = a.Camera.Target
}

// Update handles input and steps the cradle. It returns false when the user
// asked to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.Cradle.Toggle()
		a.Message = ""
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if a.Cradle.Running() {
			a.Cradle.Toggle()
		}
		a.apply(a.Cradle.Reset())
	}

	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.ParamSel = (a.ParamSel + 1) % len(paramNames)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.ParamSel = (a.ParamSel + len(paramNames) - 1) % len(paramNames)
	}
	if rl.IsKeyPressed(rl.KeyRight) || rl.IsKeyPressed(rl.KeyL) {
		a.adjust(1)
	}
	if rl.IsKeyPressed(rl.KeyLeft) || rl.IsKeyPressed(rl.KeyH) {
		a.adjust(-1)
	}

	if a.Cradle.Running() {
		a.step()
	}

	a.updateCamera()
	return true
}

// frameTime is the measured duration of the last rendered frame, or Dt before
// raylib has measured one.
func (a *App) frameTime() float64 {
	if dt := float64(rl.GetFrameTime()); dt > 0 {
		return dt
	}
	return a.Dt
}

func (a *App) step() {
	a.Cradle.Step(a.frameTime())
	if err := a.Cradle.Validate(); err != nil {
		a.Cradle.Toggle()
		a.Message = err.Error()
		a.Log.Printf("stopped: %v", err)
		return
	}

	f := a.Cradle.Frame()
	a.Telemetry = append(a.Telemetry, metrics.TotalEnergy(f))
	if len(a.Telemetry) > maxTelemetry {
		a.Telemetry = a.Telemetry[1:]
	}

	if a.Audio != nil && a.Audio.Active && f.Impact > 0 {
		a.Audio.Trigger(f.Impact, strikingBall(a.Cradle))
	}
}

// strikingBall is the index of the struck body in the first active pair.
func strikingBall(c *sim.Cradle) int {
	for _, p := range c.Pairs() {
		if p.Active {
			return p.B
		}
	}
	return 0
}

var paramNames = []string{"Spheres", "Degree", "Use left", "Left count", "Use right", "Right count"}

func (a *App) adjust(dir int) {
	s := a.Cradle.Settings()
	switch a.ParamSel {
	case 0:
		a.apply(a.Cradle.SetBallCount(s.Balls + dir))
		if a.Message == "" {
			a.resetCamera()
		}
		return
	case 1:
		s.StartingDegree += 5 * float64(dir)
	case 2:
		s.UseLeft = !s.UseLeft
	case 3:
		s.LeftCount += dir
	case 4:
		s.UseRight = !s.UseRight
	case 5:
		s.RightCount += dir
	}
	a.apply(a.Cradle.SetStartingAngles(s.StartingDegree, s.UseLeft, s.LeftCount, s.UseRight, s.RightCount))
}

func (a *App) apply(err error) {
	switch {
	case err == nil:
		a.Message = ""
		a.Telemetry = a.Telemetry[:0]
	case errors.Is(err, sim.ErrRunning):
		a.Message = "stop the cradle to change settings"
	default:
		a.Message = err.Error()
	}
}

func (a *App) updateCamera() {
	if rl.IsKeyDown(rl.KeyW) {
		a.CamPosTarget.Y += 0.05
	}
	if rl.IsKeyDown(rl.KeyS) {
		a.CamPosTarget.Y -= 0.05
	}
	if rl.IsKeyDown(rl.KeyA) {
		a.CamPosTarget.X -= 0.05
	}
	if rl.IsKeyDown(rl.KeyD) {
		a.CamPosTarget.X += 0.05
	}

	wheel := rl.GetMouseWheelMove()
	if wheel != 0 {
		zoom := float32(wheel) * 0.3
		diff := rl.Vector3Subtract(a.CamTgtTarget, a.CamPosTarget)
		if rl.Vector3Length(diff) > 1.0 || zoom < 0 {
			dir := rl.Vector3Normalize(diff)
			a.CamPosTarget = rl.Vector3Add(a.CamPosTarget, rl.Vector3Scale(dir, zoom))
		}
	}

	lerp := float32(min(5.0*a.frameTime(), 1.0))
	a.Camera.Position = rl.Vector3Lerp(a.Camera.Position, a.CamPosTarget, lerp)
	a.Camera.Target = rl.Vector3Lerp(a.Camera.Target, a.CamTgtTarget, lerp)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	rl.BeginMode3D(a.Camera)
	a.RenderCradle()
	rl.EndMode3D()

	a.DrawHUD()
	a.drawSettings()

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("cradle", 30, 30, 24, ColSelect)
	s := a.Cradle.Settings()
	a.drawText(fmt.Sprintf(":: %d spheres", s.Balls), 130, 34, 16, ColText)

	a.DrawTelemetry()

	status, col := "RUNNING", ColSelect
	if !a.Cradle.Running() {
		status, col = "STOPPED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)
	a.drawText(fmt.Sprintf("t = %.2fs", a.Cradle.Elapsed()), 1150, 54, 14, ColText)

	a.drawText("[SPACE] RUN/STOP  [R] RESET  [ARROWS] SETTINGS  [Q] QUIT", 720, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)

	if a.Audio != nil && a.Audio.Active {
		a.drawText("AUDIO [ON]", 30, 650, 14, ColAccent)
	} else {
		a.drawText("AUDIO [OFF]", 30, 650, 14, ColTextDim)
	}
	if a.Message != "" {
		a.drawText(a.Message, 30, 560, 14, rl.Red)
	}
}

func (a *App) drawSettings() {
	s := a.Cradle.Settings()
	values := []string{
		fmt.Sprintf("%d", s.Balls),
		fmt.Sprintf("%.0f deg", s.StartingDegree),
		fmt.Sprintf("%t", s.UseLeft),
		fmt.Sprintf("%d", s.LeftCount),
		fmt.Sprintf("%t", s.UseRight),
		fmt.Sprintf("%d", s.RightCount),
	}

	y := 100
	for i, name := range paramNames {
		col := ColText
		prefix := "  "
		if i == a.ParamSel {
			col, prefix = ColSelect, "> "
		}
		if a.Cradle.Running() {
			col = ColTextDim
		}
		a.drawText(fmt.Sprintf("%s%-12s %s", prefix, name, values[i]), 30, y, 16, col)
		y += 24
	}
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 40

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("E: %.3f J", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}
