// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/ooscene/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// Use this to integrate Dear ImGui rendering into Ebiten game loops.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// Game implements ebiten.Game by running one scheduler iteration per Ebiten
// update inside an ImGui frame.
type Game struct {
	scheduler *ecs.Scheduler
	backend   ImguiBackend

	// DrawScreen, if set, draws game content below the ImGui overlay.
	DrawScreen func(screen *ebiten.Image)
}

// NewGame creates a Game driving the scheduler's scene.
func NewGame(scheduler *ecs.Scheduler, backend *ebitenbackend.EbitenBackend) *Game {
	return &Game{
		scheduler: scheduler,
		backend:   ImguiBackend{EbitenBackend: backend},
	}
}

// Update begins an ImGui frame, runs one iteration and ends the frame. Both
// draw passes run here, so behaviour components may issue ImGui calls.
func (g *Game) Update() error {
	g.backend.BeginFrame()
	err := g.scheduler.Once()
	g.backend.EndFrame()
	return err
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawScreen != nil {
		g.DrawScreen(screen)
	}
	g.backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

var _ ebiten.Game = (*Game)(nil)
