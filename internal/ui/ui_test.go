package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-builder/internal/forms"
	builder "github.com/celerix-dev/celerix-builder/internal/table"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

func TestParsePreference(t *testing.T) {
	for in, want := range map[string]Preference{"light": PreferLight, "dark": PreferDark, "system": PreferSystem, "": PreferSystem} {
		got, err := ParsePreference(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePreference("solarized")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	dark := func() bool { return true }
	light := func() bool { return false }

	assert.True(t, resolve(PreferDark, light).IsDark)
	assert.False(t, resolve(PreferLight, dark).IsDark)
	assert.True(t, resolve(PreferSystem, dark).IsDark)
	assert.False(t, resolve(PreferSystem, light).IsDark)
}

func TestRenderTable(t *testing.T) {
	name := schema.Field{ID: "f-name", Name: "name", Label: "Name", Type: schema.FieldTypeText}
	tags := schema.Field{ID: "f-tags", Name: "tags", Label: "Tags", Type: schema.FieldTypeMultiselect}
	tbl := builder.New([]schema.ObjectField{
		{FieldID: name.ID, Field: &name, IsVisible: true, IsPrimary: true},
		{FieldID: tags.ID, Field: &tags, IsVisible: true, DisplayOrder: 1},
	}, builder.Actions{View: true}, builder.NewFormat("en-US", "USD"))

	records := []schema.DataRecord{
		{ID: "r1", Data: map[string]any{"f-name": "Ada", "f-tags": []any{"vip", "lead"}}},
		{ID: "r2", Data: map[string]any{"f-name": "Bob"}},
	}
	s := NewStyles(LightTheme())
	out := s.RenderTable(tbl, tbl.Rows(records, builder.Query{}))

	for _, want := range []string{"Name", "Tags", "Ada", "Bob", "vip", "lead", builder.Placeholder, "Page 1 of 1"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Actions")

	empty := s.RenderTable(tbl, tbl.Rows(nil, builder.Query{}))
	assert.Contains(t, empty, EmptyMessage)
}

func TestFormControls(t *testing.T) {
	status := schema.Field{ID: "f-status", Name: "status", Label: "Status", Type: schema.FieldTypeSelect}
	geo := schema.Field{ID: "f-geo", Name: "geo", Label: "Location", Type: schema.FieldType("geopoint")}
	email := schema.Field{ID: "f-email", Name: "email", Label: "Email", Type: schema.FieldTypeEmail}
	form := forms.Build([]schema.ObjectField{
		{FieldID: email.ID, Field: &email, IsVisible: true, IsRequired: true,
			FieldOverrides: schema.FieldOverrides{Placeholder: "ada@example.com"}},
		{FieldID: status.ID, Field: &status, IsVisible: true, DisplayOrder: 1,
			FieldOverrides: schema.FieldOverrides{Options: []string{"open", "won"}}},
		{FieldID: geo.ID, Field: &geo, IsVisible: true, DisplayOrder: 2},
	})

	out := NewStyles(LightTheme()).FormControls(form)
	for _, want := range []string{"Email", "ada@example.com", "yes", "Status", "open", "won",
		string(schema.InputSingleChoice), "Location", forms.UnsupportedPlaceholder} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, NewStyles(LightTheme()).FormControls(forms.Form{}), "No visible fields")
}

func TestBanner(t *testing.T) {
	s := NewStyles(DarkTheme())
	assert.Empty(t, s.Banner(nil))

	out := s.Banner(errors.New("boom"))
	assert.Contains(t, out, "boom")

	out = s.Banner(&sdk.APIError{Status: 422, Message: sdk.ValidationMessage, Errors: []schema.FieldError{
		{Field: "name", Message: "field required"},
		{Field: "label", Message: "too short"},
	}})
	assert.Contains(t, out, sdk.ValidationMessage)
	assert.Contains(t, out, "name: field required")
	assert.Contains(t, out, "label: too short")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), 2)
}

func TestPreferenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	p, err := LoadPreference(dir, PreferSystem)
	require.NoError(t, err)
	assert.Equal(t, PreferSystem, p)

	require.NoError(t, SavePreference(dir, PreferDark))
	p, err = LoadPreference(dir, PreferSystem)
	require.NoError(t, err)
	assert.Equal(t, PreferDark, p)

	assert.Error(t, SavePreference(dir, "neon"))
}
