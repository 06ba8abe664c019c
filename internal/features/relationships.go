package features

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/celerix-dev/celerix-builder/internal/listing"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// ErrNotEndpoint is returned when an object is on neither side of a
// relationship.
var ErrNotEndpoint = errors.New("object is not an endpoint of the relationship")

type Direction int

const (
	// Outgoing means the current object is the "from" side.
	Outgoing Direction = iota
	Incoming
)

// Side is a relationship seen from one of its objects.
type Side struct {
	Direction     Direction
	OtherObjectID string
	Label         string
}

// ResolveSide picks the opposite object and the label to show from
// objectID's point of view.
func ResolveSide(rel schema.Relationship, objectID string) (Side, error) {
	switch objectID {
	case rel.FromObjectID:
		return Side{Direction: Outgoing, OtherObjectID: rel.ToObjectID, Label: rel.FromLabel}, nil
	case rel.ToObjectID:
		return Side{Direction: Incoming, OtherObjectID: rel.FromObjectID, Label: rel.ToLabel}, nil
	}
	return Side{}, fmt.Errorf("%w: %s not in %s", ErrNotEndpoint, objectID, rel.Name)
}

// ValidateRelationshipCreate mirrors the backend's checks.
func ValidateRelationshipCreate(in schema.RelationshipCreate) []schema.FieldError {
	var errs []schema.FieldError
	errs = checkIdentifier(errs, "name", in.Name)
	errs = requireText(errs, "from_object_id", in.FromObjectID, "Source object")
	errs = requireText(errs, "to_object_id", in.ToObjectID, "Target object")
	if in.FromObjectID != "" && in.FromObjectID == in.ToObjectID {
		errs = append(errs, schema.FieldError{Field: "to_object_id", Message: "Target must differ from source"})
	}
	if !in.Type.Valid() {
		errs = append(errs, schema.FieldError{Field: "type", Message: "Type must be one_to_many or many_to_many"})
	}
	errs = requireText(errs, "from_label", in.FromLabel, "Source label")
	errs = requireText(errs, "to_label", in.ToLabel, "Target label")
	return errs
}

// RelationshipList searches name and labels. The chip is the type.
func RelationshipList(rels []schema.Relationship, q ListQuery) listing.Page[schema.Relationship] {
	return list(rels, q,
		func(r schema.Relationship) []string { return []string{r.Name, r.FromLabel, r.ToLabel, r.Description} },
		func(r schema.Relationship) string { return string(r.Type) },
	)
}

// ForObject keeps the relationships where objectID is an endpoint.
func ForObject(rels []schema.Relationship, objectID string) []schema.Relationship {
	return listing.Filter(rels, func(r schema.Relationship) bool {
		return r.FromObjectID == objectID || r.ToObjectID == objectID
	})
}

// RecordText joins a record's values in key order.
func RecordText(r schema.DataRecord) string {
	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := r.Data[k]; v != nil {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, " ")
}

// SearchCandidates matches q as a case-insensitive substring of the
// record's values joined as text.
func SearchCandidates(records []schema.DataRecord, q string) []schema.DataRecord {
	return listing.Search(records, q, func(r schema.DataRecord) []string {
		return []string{RecordText(r)}
	})
}

// Related is one existing link with the record on the other end. Record
// is nil when that record could not be loaded.
type Related struct {
	Link   schema.RelationshipRecord
	Record *schema.DataRecord
}

// RelatedPanel lists and edits the links of one record under one
// relationship.
type RelatedPanel struct {
	Rel      schema.Relationship
	Side     Side
	RecordID string

	rels    sdk.RelationshipsAPI
	records sdk.RecordsAPI
}

func NewRelatedPanel(rel schema.Relationship, objectID, recordID string, rels sdk.RelationshipsAPI, records sdk.RecordsAPI) (*RelatedPanel, error) {
	side, err := ResolveSide(rel, objectID)
	if err != nil {
		return nil, err
	}
	return &RelatedPanel{Rel: rel, Side: side, RecordID: recordID, rels: rels, records: records}, nil
}

func (p *RelatedPanel) otherEnd(l schema.RelationshipRecord) (string, bool) {
	if p.Side.Direction == Outgoing {
		return l.ToRecordID, l.FromRecordID == p.RecordID
	}
	return l.FromRecordID, l.ToRecordID == p.RecordID
}

// Load fetches the links and then the records on their other end in
// parallel.
func (p *RelatedPanel) Load(ctx context.Context) ([]Related, error) {
	links, err := p.rels.Links(ctx, p.Rel.ID, p.RecordID)
	if err != nil {
		return nil, fmt.Errorf("load links of %s: %w", p.Rel.Name, err)
	}

	var out []Related
	for _, l := range links {
		if _, mine := p.otherEnd(l); mine {
			out = append(out, Related{Link: l})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range out {
		otherID, _ := p.otherEnd(out[i].Link)
		g.Go(func() error {
			rec, err := p.records.Get(gctx, otherID)
			if sdk.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			out[i].Record = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Candidates lists records of the other object that are not linked yet,
// filtered by q.
func (p *RelatedPanel) Candidates(ctx context.Context, q string, existing []Related) ([]schema.DataRecord, error) {
	recs, err := p.records.List(ctx, sdk.RecordFilter{ObjectID: p.Side.OtherObjectID})
	if err != nil {
		return nil, err
	}
	linked := make([]string, 0, len(existing))
	for _, r := range existing {
		id, _ := p.otherEnd(r.Link)
		linked = append(linked, id)
	}
	recs = listing.Filter(recs, func(r schema.DataRecord) bool { return !slices.Contains(linked, r.ID) })
	return SearchCandidates(recs, q), nil
}

// Link connects the panel's record to other, oriented by the side.
func (p *RelatedPanel) Link(ctx context.Context, otherRecordID string, metadata map[string]any) (schema.RelationshipRecord, error) {
	in := schema.LinkCreate{FromRecordID: p.RecordID, ToRecordID: otherRecordID, RelationshipMetadata: metadata}
	if p.Side.Direction == Incoming {
		in.FromRecordID, in.ToRecordID = otherRecordID, p.RecordID
	}
	return p.rels.Link(ctx, p.Rel.ID, in)
}

// Unlink removes the link. Both records stay.
func (p *RelatedPanel) Unlink(ctx context.Context, linkID string) error {
	return p.rels.Unlink(ctx, p.Rel.ID, linkID)
}
