package forms

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

func intp(i int) *int           { return &i }
func floatp(f float64) *float64 { return &f }

func attach(id string, t schema.FieldType, order int, mods ...func(*schema.ObjectField)) schema.ObjectField {
	of := schema.ObjectField{
		ID:           "of_" + id,
		FieldID:      id,
		IsVisible:    true,
		DisplayOrder: order,
		Field:        &schema.Field{ID: id, Name: id, Label: id, Type: t},
	}
	for _, m := range mods {
		m(&of)
	}
	return of
}

func required(of *schema.ObjectField) { of.IsRequired = true }

func TestBuildFiltersAndOrders(t *testing.T) {
	hidden := attach("hidden", schema.FieldTypeText, 0, func(of *schema.ObjectField) { of.IsVisible = false })
	dangling := attach("dangling", schema.FieldTypeText, 1, func(of *schema.ObjectField) { of.Field = nil })

	form := Build([]schema.ObjectField{
		attach("c", schema.FieldTypeNumber, 5),
		hidden,
		attach("a", schema.FieldTypeText, 1),
		dangling,
		attach("b", schema.FieldTypeCheckbox, 1),
	})

	var ids []string
	for _, c := range form.Controls {
		ids = append(ids, c.FieldID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Errorf("control order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, schema.InputBoolean, form.Controls[1].Kind)
	assert.Equal(t, schema.InputNumeric, form.Controls[2].Kind)
}

func TestUnknownTypeRendersPlaceholder(t *testing.T) {
	form := Build([]schema.ObjectField{attach("geo", schema.FieldType("geopoint"), 0)})
	require.Len(t, form.Controls, 1)
	assert.False(t, form.Controls[0].Supported())
	assert.Empty(t, form.Validate(map[string]any{"geo": "anything"}))

	_, err := form.Coerce("geo", "52.1,4.3")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = form.Coerce("geo", "")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDefaultsAndInitial(t *testing.T) {
	form := Build([]schema.ObjectField{
		attach("status", schema.FieldTypeSelect, 0, func(of *schema.ObjectField) {
			of.FieldOverrides.Options = []string{"open", "closed"}
			of.FieldOverrides.DefaultValue = "open"
		}),
		attach("tags", schema.FieldTypeMultiselect, 1),
		attach("title", schema.FieldTypeText, 2),
	})

	assert.Equal(t, map[string]any{"status": "open"}, form.Defaults())
	assert.Equal(t, map[string]any{"status": "open", "tags": []string{}}, form.Initial(nil))

	rec := &schema.DataRecord{Data: map[string]any{"status": "closed", "extra": 1}}
	assert.Equal(t, map[string]any{"status": "closed", "tags": "", "title": ""}, form.Initial(rec))
}

func TestValidate(t *testing.T) {
	form := Build([]schema.ObjectField{
		attach("name", schema.FieldTypeText, 0, required, func(of *schema.ObjectField) {
			of.FieldOverrides.Validation = &schema.ValidationRules{MinLength: intp(2), MaxLength: intp(5), Pattern: "^[a-z]+$"}
		}),
		attach("email", schema.FieldTypeEmail, 1),
		attach("site", schema.FieldTypeURL, 2),
		attach("qty", schema.FieldTypeNumber, 3, func(of *schema.ObjectField) {
			of.FieldOverrides.Validation = &schema.ValidationRules{Min: floatp(0), Max: floatp(10)}
		}),
		attach("stage", schema.FieldTypeRadio, 4, required, func(of *schema.ObjectField) {
			of.FieldOverrides.Options = []string{"lead", "won"}
		}),
		attach("tags", schema.FieldTypeMultiselect, 5, func(of *schema.ObjectField) {
			of.FieldOverrides.Options = []string{"x", "y", "z"}
			of.FieldOverrides.Validation = &schema.ValidationRules{MaxItems: intp(2)}
		}),
		attach("due", schema.FieldTypeDate, 6, required),
	})

	tests := []struct {
		name   string
		values map[string]any
		want   map[string]string
	}{
		{
			name:   "all valid",
			values: map[string]any{"name": "abc", "email": "a@b.co", "site": "https://x.io", "qty": 3.0, "stage": "won", "tags": []any{"x"}, "due": "2024-01-01"},
			want:   map[string]string{},
		},
		{
			name:   "optional blanks pass",
			values: map[string]any{"name": "abc", "email": "", "qty": nil, "stage": "lead", "due": "2024-01-01"},
			want:   map[string]string{},
		},
		{
			name:   "required missing",
			values: map[string]any{"name": "  ", "stage": ""},
			want:   map[string]string{"name": "This field is required", "stage": "This field is required", "due": "This field is required"},
		},
		{
			name:   "constraint failures",
			values: map[string]any{"name": "toolongname", "email": "nope", "site": "not a url", "qty": "11", "stage": "lost", "tags": []string{"x", "y", "z"}, "due": "2024-01-01"},
			want: map[string]string{
				"name":  "Must be at most 5 characters",
				"email": "Invalid email address",
				"site":  "Invalid URL",
				"qty":   "Must be at most 10",
				"stage": "Select a valid option",
				"tags":  "Select at most 2",
			},
		},
		{
			name:   "pattern and type",
			values: map[string]any{"name": "AB", "qty": "lots", "stage": "won", "tags": []any{"q"}, "due": "2024-01-01"},
			want:   map[string]string{"name": "Invalid format", "qty": "Must be a number", "tags": "Select a valid option"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := map[string]string{}
			for _, fe := range form.Validate(tt.values) {
				got[fe.Field] = fe.Message
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadonlyIsSkipped(t *testing.T) {
	form := Build([]schema.ObjectField{
		attach("id_code", schema.FieldTypeText, 0, required, func(of *schema.ObjectField) { of.IsReadonly = true }),
		attach("title", schema.FieldTypeText, 1),
	})
	assert.Empty(t, form.Validate(map[string]any{}))
	assert.Equal(t, map[string]any{"title": "t"}, form.Payload(map[string]any{"id_code": "X", "title": "t"}))
}

func TestCoerce(t *testing.T) {
	form := Build([]schema.ObjectField{
		attach("amount", schema.FieldTypeCurrency, 0),
		attach("done", schema.FieldTypeCheckbox, 1),
		attach("due", schema.FieldTypeDate, 2),
		attach("at", schema.FieldTypeDateTime, 3),
		attach("tags", schema.FieldTypeMultiselect, 4),
		attach("title", schema.FieldTypeText, 5),
	})

	tests := []struct {
		field string
		raw   string
		want  any
	}{
		{"amount", "$1,250.50", 1250.5},
		{"amount", "", nil},
		{"done", "yes", true},
		{"done", "false", false},
		{"due", "2024-03-01", "2024-03-01"},
		{"at", "2024-03-01 09:30", "2024-03-01T09:30:00Z"},
		{"tags", "a, b,,c", []string{"a", "b", "c"}},
		{"tags", " ", []string{}},
		{"title", "  hello ", "hello"},
	}
	for _, tt := range tests {
		got, err := form.Coerce(tt.field, tt.raw)
		require.NoError(t, err, "%s=%q", tt.field, tt.raw)
		assert.Equal(t, tt.want, got, "%s=%q", tt.field, tt.raw)
	}

	for field, raw := range map[string]string{"amount": "abc", "done": "maybe", "due": "03/01/2024"} {
		_, err := form.Coerce(field, raw)
		assert.Error(t, err, "%s=%q", field, raw)
	}
	_, err := form.Coerce("missing", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

type fakeAttachments struct {
	list []schema.ObjectField
	err  error
}

func (f fakeAttachments) List(context.Context, string) ([]schema.ObjectField, error) {
	return f.list, f.err
}

type fakeFields struct {
	list []schema.Field
	err  error
}

func (f fakeFields) List(context.Context, sdk.FieldFilter) ([]schema.Field, error) {
	return f.list, f.err
}

func TestLoadJoinsCatalog(t *testing.T) {
	ofs := []schema.ObjectField{
		{ID: "of1", FieldID: "f1", IsVisible: true},
		{ID: "of2", FieldID: "gone", IsVisible: true},
		{ID: "of3", FieldID: "f2", IsVisible: true, Field: &schema.Field{ID: "f2", Name: "embedded"}},
	}
	catalog := []schema.Field{{ID: "f1", Name: "title", Type: schema.FieldTypeText}, {ID: "f2", Name: "catalog"}}

	got, err := Load(context.Background(), fakeAttachments{list: ofs}, fakeFields{list: catalog}, "obj")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "title", got[0].Field.Name)
	assert.Nil(t, got[1].Field)
	assert.Equal(t, "embedded", got[2].Field.Name)

	assert.Len(t, Build(got).Controls, 2)
}

func TestLoadPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(), fakeAttachments{}, fakeFields{err: boom}, "obj")
	assert.ErrorIs(t, err, boom)
}
