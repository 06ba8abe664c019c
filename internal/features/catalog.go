package features

import (
	"context"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/celerix-dev/celerix-builder/internal/listing"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// --- Fields ---

// ValidateFieldCreate mirrors the backend's checks for a new field.
func ValidateFieldCreate(in schema.FieldCreate) []schema.FieldError {
	var errs []schema.FieldError
	errs = checkIdentifier(errs, "name", in.Name)
	errs = requireText(errs, "label", in.Label, "Label")
	if in.Type == "" {
		errs = append(errs, schema.FieldError{Field: "type", Message: "Type is required"})
	} else if !in.Type.Valid() {
		errs = append(errs, schema.FieldError{Field: "type", Message: "Unknown field type"})
	}
	return errs
}

// FieldList searches name, label and description. The chip is a field type.
func FieldList(fields []schema.Field, q ListQuery) listing.Page[schema.Field] {
	return list(fields, q,
		func(f schema.Field) []string { return []string{f.Name, f.Label, f.Description} },
		func(f schema.Field) string { return string(f.Type) },
	)
}

// FieldChips lists the field types present, in first-seen order.
func FieldChips(fields []schema.Field) []string {
	return chips(fields, func(f schema.Field) string { return string(f.Type) })
}

// CreateField validates locally before calling the backend. Local
// failures come back as an *sdk.APIError with status 0.
func CreateField(ctx context.Context, api sdk.FieldsAPI, in schema.FieldCreate) (schema.Field, error) {
	if errs := ValidateFieldCreate(in); len(errs) > 0 {
		return schema.Field{}, &sdk.APIError{Message: sdk.ValidationMessage, Errors: errs}
	}
	return api.Create(ctx, in)
}

// UpdateField refuses system fields before sending anything.
func UpdateField(ctx context.Context, api sdk.FieldsAPI, f schema.Field, in schema.FieldUpdate) (schema.Field, error) {
	if err := EditGate(f); err != nil {
		return schema.Field{}, err
	}
	if in.Label != nil && strings.TrimSpace(*in.Label) == "" {
		return schema.Field{}, &sdk.APIError{Message: sdk.ValidationMessage,
			Errors: []schema.FieldError{{Field: "label", Message: "Label is required"}}}
	}
	return api.Update(ctx, f.ID, in)
}

// DeleteField refuses system fields. The backend drops the field's
// attachments.
func DeleteField(ctx context.Context, api sdk.FieldsAPI, f schema.Field) error {
	if err := EditGate(f); err != nil {
		return err
	}
	return api.Delete(ctx, f.ID)
}

// --- Objects ---

// PrepareObjectCreate fills a blank plural name from the label and
// validates the result.
func PrepareObjectCreate(in schema.ObjectCreate) (schema.ObjectCreate, []schema.FieldError) {
	if strings.TrimSpace(in.PluralName) == "" && strings.TrimSpace(in.Label) != "" {
		in.PluralName = inflection.Plural(strings.TrimSpace(in.Label))
	}
	if in.Category == "" {
		in.Category = schema.ObjectCategoryCustom
	}
	var errs []schema.FieldError
	errs = checkIdentifier(errs, "name", in.Name)
	errs = requireText(errs, "label", in.Label, "Label")
	errs = requireText(errs, "plural_name", in.PluralName, "Plural name")
	return in, errs
}

// ObjectList searches name, label and description. The chip is a category.
func ObjectList(objects []schema.Object, q ListQuery) listing.Page[schema.Object] {
	return list(objects, q,
		func(o schema.Object) []string { return []string{o.Name, o.Label, o.PluralName, o.Description} },
		func(o schema.Object) string { return string(o.Category) },
	)
}

func CreateObject(ctx context.Context, api sdk.ObjectsAPI, in schema.ObjectCreate) (schema.Object, error) {
	in, errs := PrepareObjectCreate(in)
	if len(errs) > 0 {
		return schema.Object{}, &sdk.APIError{Message: sdk.ValidationMessage, Errors: errs}
	}
	return api.Create(ctx, in)
}

func UpdateObject(ctx context.Context, api sdk.ObjectsAPI, o schema.Object, in schema.ObjectUpdate) (schema.Object, error) {
	if err := EditGate(o); err != nil {
		return schema.Object{}, err
	}
	return api.Update(ctx, o.ID, in)
}

// DeleteObject needs the typed-name confirmation to be open. The backend
// cascades to records, attachments and relationships.
func DeleteObject(ctx context.Context, api sdk.ObjectsAPI, o schema.Object, confirm *DeleteConfirmation) error {
	if err := EditGate(o); err != nil {
		return err
	}
	if confirm == nil || confirm.Expected != o.Name {
		return ErrNotConfirmed
	}
	return confirm.Confirm(ctx, func(ctx context.Context) error {
		return api.Delete(ctx, o.ID)
	})
}
