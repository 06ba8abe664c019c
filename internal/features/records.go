package features

import (
	"context"

	"github.com/celerix-dev/celerix-builder/internal/forms"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// SaveRecord validates values against the form and creates a record, or
// patches an existing one. A patch carries only the form's editable keys;
// keys it leaves out keep their stored values.
func SaveRecord(ctx context.Context, api sdk.RecordsAPI, form forms.Form, objectID string, existing *schema.DataRecord, values map[string]any) (schema.DataRecord, error) {
	if errs := form.Validate(values); len(errs) > 0 {
		return schema.DataRecord{}, &sdk.APIError{Message: sdk.ValidationMessage, Errors: errs}
	}
	payload := form.Payload(values)
	if existing == nil {
		return api.Create(ctx, objectID, payload)
	}
	return api.Update(ctx, existing.ID, payload)
}
