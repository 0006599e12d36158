package debugui

import (
	"github.com/plus3/ooscene/ecs"
)

type EntityBrowser struct {
	cache              *EntityBrowserCache
	selectedEntityId   ecs.EntityID
	hasSelection       bool
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspector struct {
	selectedEntityId ecs.EntityID
	cache            *ReflectionCache
}

type PerformanceStats struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}
