// Package debugui provides immediate-mode GUI integration for scenes using Dear ImGui.
// Its widgets are behaviour components, so they render during the scene's
// synchronous behaviour pass and never from the concurrent system passes.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ooscene/ecs"
)

// ImguiItem is a behaviour component that holds a Dear ImGui render function.
// Attach it to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	ecs.BaseBehaviour
	Render func()
}

func (i *ImguiItem) Draw() {
	if i.Render != nil {
		i.Render()
	}
}

// InputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// Overlay is a behaviour component rendering the entity browser, component
// inspector and performance windows for one scene.
type Overlay struct {
	ecs.BaseBehaviour

	Browser   *EntityBrowser
	Inspector *ComponentInspector
	Stats     *PerformanceStats

	scene       *ecs.Scene
	timer       *FrameTimer
	deltaTime   float32
	input       InputState
	unsubscribe []func()
}

// NewOverlay creates an overlay for scene. It starts tracking scene changes
// once it is attached to an entity.
func NewOverlay(scene *ecs.Scene) *Overlay {
	return &Overlay{
		Browser:   NewEntityBrowser(100),
		Inspector: NewComponentInspector(),
		Stats:     NewPerformanceStats(120),
		scene:     scene,
		timer:     NewFrameTimer(),
	}
}

func (o *Overlay) OnAdded() {
	invalidate := func(*ecs.Entity) { o.Browser.Invalidate() }
	invalidateComponent := func(ecs.Component) { o.Browser.Invalidate() }

	o.unsubscribe = append(o.unsubscribe,
		o.scene.OnEntityAdded(invalidate),
		o.scene.OnEntityRemoved(invalidate),
		o.scene.OnComponentAdded(invalidateComponent),
		o.scene.OnComponentRemoved(invalidateComponent),
	)
	o.Browser.Invalidate()
}

func (o *Overlay) OnRemoved() {
	for _, unsubscribe := range o.unsubscribe {
		unsubscribe()
	}
	o.unsubscribe = nil
}

// Update samples the frame time and ImGui's input capture state.
func (o *Overlay) Update() {
	o.deltaTime = o.timer.GetDeltaTime()

	io := imgui.CurrentIO()
	o.input = InputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}
}

// Draw renders the overlay windows.
func (o *Overlay) Draw() {
	o.Browser.Render(o.scene)
	selected, ok := o.Browser.Selected()
	o.Inspector.Render(o.scene, selected, ok)
	o.Stats.Render(o.scene, o.deltaTime)
}

// InputState returns the capture state sampled by the last Update.
func (o *Overlay) InputState() InputState {
	return o.input
}
