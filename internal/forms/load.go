package forms

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// AttachmentLister is satisfied by sdk.ObjectFieldsAPI.
type AttachmentLister interface {
	List(ctx context.Context, objectID string) ([]schema.ObjectField, error)
}

// FieldLister is satisfied by sdk.FieldsAPI.
type FieldLister interface {
	List(ctx context.Context, f sdk.FieldFilter) ([]schema.Field, error)
}

// Load fetches an object's attachments and the field catalogue in
// parallel and fills in any attachment whose field was not embedded.
// Attachments that still have no field are returned as is; Build skips
// them.
func Load(ctx context.Context, attachments AttachmentLister, fields FieldLister, objectID string) ([]schema.ObjectField, error) {
	var (
		ofs     []schema.ObjectField
		catalog []schema.Field
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ofs, err = attachments.List(gctx, objectID)
		if err != nil {
			return fmt.Errorf("list attachments of %s: %w", objectID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		catalog, err = fields.List(gctx, sdk.FieldFilter{})
		if err != nil {
			return fmt.Errorf("list fields: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]schema.Field, len(catalog))
	for _, f := range catalog {
		byID[f.ID] = f
	}
	out := make([]schema.ObjectField, 0, len(ofs))
	for _, of := range ofs {
		if of.Field == nil {
			if f, ok := byID[of.FieldID]; ok {
				of.Field = &f
			}
		}
		out = append(out, of)
	}
	return out, nil
}
