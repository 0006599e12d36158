package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ooscene/ecs"
)

func NewComponentInspector() *ComponentInspector {
	return &ComponentInspector{}
}

func (ci *ComponentInspector) Render(scene *ecs.Scene, selectedEntityId ecs.EntityID, selected bool) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	if !selected {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}
	ci.selectedEntityId = selectedEntityId

	entity, ok := scene.GetByID(ci.selectedEntityId)
	if !ok {
		imgui.Text(fmt.Sprintf("Entity %d not found", ci.selectedEntityId))
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity ID: %d", entity.ID()))
	imgui.Text(fmt.Sprintf("Name: %s", entity.Name))
	imgui.Separator()

	components, err := entity.Components()
	if err != nil {
		imgui.Text(err.Error())
		imgui.End()
		return
	}

	if registry := scene.Registry(); ci.cache == nil || ci.cache.Registry() != registry {
		ci.cache = NewReflectionCache(registry)
	}
	for _, component := range components {
		layout := ci.cache.Layout(component)
		if imgui.TreeNodeStr(layout.Name) {
			ci.renderComponent(layout, component)
			imgui.TreePop()
		}
	}

	imgui.End()
}

func (ci *ComponentInspector) renderComponent(layout *ComponentLayout, component ecs.Component) {
	val := reflect.ValueOf(component)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		imgui.Text(fmt.Sprintf("%v", val.Interface()))
		return
	}
	ci.renderFields(val, layout.Fields)
}

func (ci *ComponentInspector) renderFields(val reflect.Value, fields []FieldInfo) {
	for _, field := range fields {
		fieldVal, err := val.FieldByIndexErr(field.Index)
		if err != nil {
			// Promoted through a nil embedded pointer.
			imgui.Text(fmt.Sprintf("%s: nil", field.Name))
			continue
		}
		if field.IsPointer && !fieldVal.IsNil() {
			fieldVal = fieldVal.Elem()
		}
		ci.renderField(field.Name, fieldVal, field)
	}
}

func (ci *ComponentInspector) renderField(name string, val reflect.Value, field FieldInfo) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	if field.IsPointer && val.Kind() == reflect.Ptr && val.IsNil() {
		imgui.Text(fmt.Sprintf("%s: nil", name))
		return
	}

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) {
			setIntField(val, int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && v >= 0 {
			setUintField(val, uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(fmt.Sprintf("##%s", name), &v) {
			setFloatField(val, float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) {
			setBoolField(val, v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(fmt.Sprintf("##%s", name), "", &v, imgui.InputTextFlagsNone, nil) {
			setStringField(val, v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			ci.renderFields(val, ci.cache.Fields(val.Type()))
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		if val.CanInterface() {
			imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
		} else {
			imgui.Text(fmt.Sprintf("%s: <%s>", name, val.Type()))
		}
	}
}

func setIntField(field reflect.Value, value int64) bool {
	if !field.CanSet() || field.OverflowInt(value) {
		return false
	}
	field.SetInt(value)
	return true
}

func setUintField(field reflect.Value, value uint64) bool {
	if !field.CanSet() || field.OverflowUint(value) {
		return false
	}
	field.SetUint(value)
	return true
}

func setFloatField(field reflect.Value, value float64) bool {
	if !field.CanSet() {
		return false
	}
	field.SetFloat(value)
	return true
}

func setBoolField(field reflect.Value, value bool) bool {
	if !field.CanSet() {
		return false
	}
	field.SetBool(value)
	return true
}

func setStringField(field reflect.Value, value string) bool {
	if !field.CanSet() {
		return false
	}
	field.SetString(value)
	return true
}
