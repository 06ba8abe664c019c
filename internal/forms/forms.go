// Package forms derives record forms from an object's attached fields:
// one control per visible field, its validation rule, default values and
// the initial values for create and edit.
package forms

import (
	"slices"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// Control describes one rendered form input.
type Control struct {
	FieldID     string
	Name        string
	Label       string
	Type        schema.FieldType
	Kind        schema.InputKind
	Rule        Rule
	Placeholder string
	Options     []string
	Readonly    bool
	Primary     bool
	Default     any
	HasDefault  bool
}

// UnsupportedPlaceholder stands in for controls of unknown field types.
const UnsupportedPlaceholder = "type not supported"

// Supported is false for field types this client cannot render. Such
// controls show UnsupportedPlaceholder and accept no input.
func (c Control) Supported() bool {
	return c.Kind != schema.InputUnsupported
}

// Form is the ordered render list for one object.
type Form struct {
	Controls []Control
}

// Build keeps visible attachments with a resolved field, sorted by
// display_order, and derives one control for each.
func Build(attachments []schema.ObjectField) Form {
	visible := make([]schema.ObjectField, 0, len(attachments))
	for _, of := range attachments {
		if !of.IsVisible || of.Field == nil {
			continue
		}
		visible = append(visible, of)
	}
	slices.SortStableFunc(visible, func(a, b schema.ObjectField) int {
		return a.DisplayOrder - b.DisplayOrder
	})

	controls := make([]Control, 0, len(visible))
	for _, of := range visible {
		controls = append(controls, newControl(of))
	}
	return Form{Controls: controls}
}

func newControl(of schema.ObjectField) Control {
	f := of.Field
	ov := of.FieldOverrides
	c := Control{
		FieldID:     of.FieldID,
		Name:        f.Name,
		Label:       f.Label,
		Type:        f.Type,
		Kind:        f.Type.Input(),
		Rule:        RuleFor(of),
		Placeholder: ov.Placeholder,
		Options:     slices.Clone(ov.Options),
		Readonly:    of.IsReadonly,
		Primary:     of.IsPrimary,
	}
	if ov.DefaultValue != nil {
		c.Default = ov.DefaultValue
		c.HasDefault = true
	}
	return c
}

// Control looks a control up by field id.
func (f Form) Control(fieldID string) (Control, bool) {
	for _, c := range f.Controls {
		if c.FieldID == fieldID {
			return c, true
		}
	}
	return Control{}, false
}

// Defaults returns the configured default values. Fields without one are
// absent.
func (f Form) Defaults() map[string]any {
	out := make(map[string]any)
	for _, c := range f.Controls {
		if c.HasDefault {
			out[c.FieldID] = c.Default
		}
	}
	return out
}

// Initial returns the starting values of the form. A nil record means
// create: configured defaults, plus an empty selection for optional
// multi-choice fields. For edit every control is seeded from the record,
// with "" for fields missing from its data.
func (f Form) Initial(record *schema.DataRecord) map[string]any {
	if record == nil {
		out := f.Defaults()
		for _, c := range f.Controls {
			if _, ok := out[c.FieldID]; !ok && c.Rule.Kind == schema.RuleArray && !c.Rule.Required {
				out[c.FieldID] = []string{}
			}
		}
		return out
	}
	out := make(map[string]any, len(f.Controls))
	for _, c := range f.Controls {
		if v, ok := record.Data[c.FieldID]; ok {
			out[c.FieldID] = v
		} else {
			out[c.FieldID] = ""
		}
	}
	return out
}

// Payload keeps the values of editable controls only.
func (f Form) Payload(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for _, c := range f.Controls {
		if c.Readonly {
			continue
		}
		if v, ok := values[c.FieldID]; ok {
			out[c.FieldID] = v
		}
	}
	return out
}
