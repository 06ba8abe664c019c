package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/celerix-dev/celerix-builder/internal/cache"
	"github.com/celerix-dev/celerix-builder/internal/forms"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

const (
	resFields        = "fields"
	resObjects       = "objects"
	resRelationships = "relationships"
	resApplications  = "applications"
	resObjectFields  = "object-fields"
)

func (a *app) fields(ctx context.Context) ([]schema.Field, error) {
	return cache.Fetch(ctx, a.cache, resFields, cache.ListKey, func(ctx context.Context) ([]schema.Field, error) {
		return a.client.Fields().List(ctx, sdk.FieldFilter{})
	})
}

func (a *app) objects(ctx context.Context) ([]schema.Object, error) {
	return cache.Fetch(ctx, a.cache, resObjects, cache.ListKey, func(ctx context.Context) ([]schema.Object, error) {
		return a.client.Objects().List(ctx, sdk.ObjectFilter{})
	})
}

func (a *app) relationships(ctx context.Context) ([]schema.Relationship, error) {
	return cache.Fetch(ctx, a.cache, resRelationships, cache.ListKey, func(ctx context.Context) ([]schema.Relationship, error) {
		return a.client.Relationships().List(ctx, sdk.RelationshipFilter{})
	})
}

func (a *app) applications(ctx context.Context) ([]schema.Application, error) {
	return cache.Fetch(ctx, a.cache, resApplications, cache.ListKey, func(ctx context.Context) ([]schema.Application, error) {
		return a.client.Applications().List(ctx, sdk.ListOptions{})
	})
}

// cachedFields serves the field catalogue to forms.Load from the cache.
type cachedFields struct{ a *app }

func (c cachedFields) List(ctx context.Context, _ sdk.FieldFilter) ([]schema.Field, error) {
	return c.a.fields(ctx)
}

// attachments returns an object's attachments joined with the catalogue.
func (a *app) attachments(ctx context.Context, objectID string) ([]schema.ObjectField, error) {
	return cache.Fetch(ctx, a.cache, resObjectFields, objectID, func(ctx context.Context) ([]schema.ObjectField, error) {
		return forms.Load(ctx, a.client.ObjectFields(), cachedFields{a}, objectID)
	})
}

func matches(ref, id, name string) bool {
	return ref == id || strings.EqualFold(ref, name)
}

// findObject accepts an id or a name.
func (a *app) findObject(ctx context.Context, ref string) (schema.Object, error) {
	all, err := a.objects(ctx)
	if err != nil {
		return schema.Object{}, err
	}
	for _, o := range all {
		if matches(ref, o.ID, o.Name) {
			return o, nil
		}
	}
	return schema.Object{}, fmt.Errorf("object %q not found", ref)
}

func (a *app) findField(ctx context.Context, ref string) (schema.Field, error) {
	all, err := a.fields(ctx)
	if err != nil {
		return schema.Field{}, err
	}
	for _, f := range all {
		if matches(ref, f.ID, f.Name) {
			return f, nil
		}
	}
	return schema.Field{}, fmt.Errorf("field %q not found", ref)
}

func (a *app) findRelationship(ctx context.Context, ref string) (schema.Relationship, error) {
	all, err := a.relationships(ctx)
	if err != nil {
		return schema.Relationship{}, err
	}
	for _, r := range all {
		if matches(ref, r.ID, r.Name) {
			return r, nil
		}
	}
	return schema.Relationship{}, fmt.Errorf("relationship %q not found", ref)
}

func (a *app) findApplication(ctx context.Context, ref string) (schema.Application, error) {
	all, err := a.applications(ctx)
	if err != nil {
		return schema.Application{}, err
	}
	for _, app := range all {
		if matches(ref, app.ID, app.Name) {
			return app, nil
		}
	}
	return schema.Application{}, fmt.Errorf("application %q not found", ref)
}

// findAttachment accepts an attachment id, a field id or a field name.
func findAttachment(ofs []schema.ObjectField, ref string) (schema.ObjectField, bool) {
	for _, of := range ofs {
		if of.ID == ref || of.FieldID == ref || (of.Field != nil && strings.EqualFold(of.Field.Name, ref)) {
			return of, true
		}
	}
	return schema.ObjectField{}, false
}

func objectName(objs []schema.Object) func(string) string {
	return func(id string) string {
		for _, o := range objs {
			if o.ID == id {
				return o.Label
			}
		}
		return ""
	}
}
