package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityDisposed is returned by every operation on an entity whose ID
	// has been invalidated by Dispose.
	ErrEntityDisposed = errors.New("ecs: entity was disposed")

	// ErrComponentNotFound is matched by ComponentNotFoundError.
	ErrComponentNotFound = errors.New("ecs: component not found")

	// ErrCapacityExceeded is returned by Scene.Create once the ID space is used up.
	ErrCapacityExceeded = errors.New("ecs: entity capacity exceeded")

	// ErrTypeMismatch is returned when the scene payload is not of the requested type.
	ErrTypeMismatch = errors.New("ecs: type mismatch")

	// ErrUnknownComponentKey is returned when a logical component key was never registered.
	ErrUnknownComponentKey = errors.New("ecs: unknown component key")

	// ErrEntityRemoved is returned in strict mode when the components of an
	// entity are read between RemoveEntity and the next flush.
	ErrEntityRemoved = errors.New("ecs: entity is pending removal")

	// ErrDispatchInProgress is returned when a flush is attempted while
	// systems are still being fanned out.
	ErrDispatchInProgress = errors.New("ecs: system dispatch in progress")
)

// ComponentNotFoundError names the component type that was requested.
type ComponentNotFoundError struct {
	Type string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("ecs: couldn't find component of type %q", e.Type)
}

func (e *ComponentNotFoundError) Is(target error) bool {
	return target == ErrComponentNotFound
}

// SystemPanicError wraps a panic recovered from a system during dispatch.
type SystemPanicError struct {
	System string
	Value  any
}

func (e *SystemPanicError) Error() string {
	return fmt.Sprintf("ecs: system %s panicked: %v", e.System, e.Value)
}
