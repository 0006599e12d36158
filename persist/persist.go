// Package persist snapshots scenes to YAML and rebuilds them.
//
// Only components whose type was registered with a logical key are written;
// the key selects the factory used on restore. Restoring goes through
// Scene.Create and Entity.AddComponent, so lifecycle hooks and scene events
// fire exactly as they do for entities built in code.
package persist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plus3/ooscene/ecs"
)

// SceneData is the persisted form of a scene.
type SceneData struct {
	SceneID  string       `yaml:"scene_id,omitempty"`
	Entities []EntityData `yaml:"entities"`
}

// EntityData is the persisted form of an entity.
type EntityData struct {
	Name       string          `yaml:"name"`
	Components []ComponentData `yaml:"components,omitempty"`
}

// ComponentData holds a component's logical key and its encoded fields.
type ComponentData struct {
	Type string    `yaml:"type"`
	Data yaml.Node `yaml:"data"`
}

// SnapshotEntity captures the keyed components of e, ordered by key.
func SnapshotEntity(e *ecs.Entity) (EntityData, error) {
	components, err := e.Components()
	if err != nil {
		return EntityData{}, fmt.Errorf("snapshot %s: %w", e, err)
	}

	registry := e.Registry()
	data := EntityData{Name: e.Name}
	for _, c := range components {
		key, ok := registry.Key(registry.TypeOf(c))
		if !ok {
			continue
		}

		cd := ComponentData{Type: key}
		if err := cd.Data.Encode(c); err != nil {
			return EntityData{}, fmt.Errorf("encode %s on %s: %w", key, e, err)
		}
		data.Components = append(data.Components, cd)
	}

	slices.SortFunc(data.Components, func(a, b ComponentData) int {
		return strings.Compare(a.Type, b.Type)
	})
	return data, nil
}

// SnapshotScene captures every live entity of s, ordered by ID.
func SnapshotScene(s *ecs.Scene) (*SceneData, error) {
	data := &SceneData{SceneID: s.ID().String()}
	for _, e := range s.Entities() {
		ed, err := SnapshotEntity(e)
		if err != nil {
			return nil, err
		}
		data.Entities = append(data.Entities, ed)
	}
	return data, nil
}

// RestoreEntity creates an entity in s from data. On failure the partially
// built entity is disposed.
func RestoreEntity(s *ecs.Scene, data EntityData) (*ecs.Entity, error) {
	e, err := s.Create(data.Name)
	if err != nil {
		return nil, err
	}

	for _, cd := range data.Components {
		if err := restoreComponent(s.Registry(), e, cd); err != nil {
			return nil, errors.Join(fmt.Errorf("restore %q: %w", data.Name, err), e.Dispose())
		}
	}
	return e, nil
}

func restoreComponent(registry *ecs.ComponentRegistry, e *ecs.Entity, cd ComponentData) error {
	c, err := registry.New(cd.Type)
	if err != nil {
		return err
	}
	if !cd.Data.IsZero() {
		if err := cd.Data.Decode(c); err != nil {
			return fmt.Errorf("decode %s: %w", cd.Type, err)
		}
	}

	ok, err := e.AddComponent(c)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("duplicate component %s", cd.Type)
	}
	return nil
}

// RestoreScene creates every entity of data in s. The entities join the scene
// on its next flush.
func RestoreScene(s *ecs.Scene, data *SceneData) ([]*ecs.Entity, error) {
	entities := make([]*ecs.Entity, 0, len(data.Entities))
	for i, ed := range data.Entities {
		e, err := RestoreEntity(s, ed)
		if err != nil {
			return entities, fmt.Errorf("entity %d: %w", i, err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Save writes data as YAML.
func Save(w io.Writer, data *SceneData) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// Load reads YAML written by Save.
func Load(r io.Reader) (*SceneData, error) {
	var data SceneData
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func SaveFile(path string, data *SceneData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Save(f, data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func LoadFile(path string) (*SceneData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return data, nil
}
