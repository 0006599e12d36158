package debugui

import "github.com/plus3/ooscene/ecs"

// SpawnDebugUI creates an entity carrying an Overlay for scene, registering a
// BehaviourSystem if the scene has none. The overlay starts drawing after the
// next flush.
func SpawnDebugUI(scene *ecs.Scene) (*Overlay, error) {
	if _, ok := ecs.GetSystem[*ecs.BehaviourSystem](scene); !ok {
		scene.AddSystem(ecs.NewBehaviourSystem())
	}

	entity, err := scene.Create("debugui")
	if err != nil {
		return nil, err
	}

	overlay := NewOverlay(scene)
	if _, err := entity.AddComponent(overlay); err != nil {
		return nil, err
	}
	return overlay, nil
}
