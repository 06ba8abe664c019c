package board

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

type fakeAPI struct {
	created  []schema.ObjectFieldCreate
	updated  map[string]schema.ObjectFieldUpdate
	deleted  []string
	bulk     [][]schema.OrderUpdate
	bulkErr  error
	duringFn func()
}

func (f *fakeAPI) List(context.Context, string) ([]schema.ObjectField, error) { return nil, nil }

func (f *fakeAPI) Create(_ context.Context, in schema.ObjectFieldCreate) (schema.ObjectField, error) {
	f.created = append(f.created, in)
	return schema.ObjectField{ID: "of_" + in.FieldID, ObjectID: in.ObjectID, FieldID: in.FieldID,
		IsVisible: in.IsVisible, DisplayOrder: in.DisplayOrder}, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, in schema.ObjectFieldUpdate) (schema.ObjectField, error) {
	if f.updated == nil {
		f.updated = map[string]schema.ObjectFieldUpdate{}
	}
	f.updated[id] = in
	out := schema.ObjectField{ID: id}
	if in.IsRequired != nil {
		out.IsRequired = *in.IsRequired
	}
	return out, nil
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) BulkUpdateOrder(_ context.Context, updates []schema.OrderUpdate) error {
	if f.duringFn != nil {
		f.duringFn()
	}
	f.bulk = append(f.bulk, updates)
	return f.bulkErr
}

func catalog() []schema.Field {
	return []schema.Field{{ID: "A", Name: "a"}, {ID: "B", Name: "b"}, {ID: "C", Name: "c"}}
}

func attachedABC() []schema.ObjectField {
	return []schema.ObjectField{
		{ID: "oc", FieldID: "C", DisplayOrder: 2},
		{ID: "oa", FieldID: "A", DisplayOrder: 0},
		{ID: "ob", FieldID: "B", DisplayOrder: 1},
	}
}

func order(ofs []schema.ObjectField) map[string]int {
	out := map[string]int{}
	for _, of := range ofs {
		out[of.FieldID] = of.DisplayOrder
	}
	return out
}

func TestAvailableExcludesAttached(t *testing.T) {
	b := New("O", &fakeAPI{}, catalog(), []schema.ObjectField{{ID: "oa", FieldID: "A"}})

	var ids []string
	for _, f := range b.Available() {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{"B", "C"}, ids); diff != "" {
		t.Errorf("available mismatch (-want +got):\n%s", diff)
	}
}

func TestAttachAppendsWithDefaults(t *testing.T) {
	api := &fakeAPI{}
	b := New("O", api, catalog(), []schema.ObjectField{{ID: "oa", FieldID: "A"}})

	of, err := b.Attach(context.Background(), "C")
	require.NoError(t, err)
	require.Len(t, api.created, 1)
	assert.Equal(t, schema.ObjectFieldCreate{ObjectID: "O", FieldID: "C", IsVisible: true, DisplayOrder: 1}, api.created[0])
	assert.Equal(t, "of_C", of.ID)
	assert.Len(t, b.Attached(), 2)

	_, err = b.Attach(context.Background(), "A")
	assert.ErrorIs(t, err, ErrAlreadyAttached)
	_, err = b.Attach(context.Background(), "Z")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestReorderRenumbersEveryAttachment(t *testing.T) {
	api := &fakeAPI{}
	var settled []error
	b := New("O", api, catalog(), attachedABC(), WithOnSettled(func(err error) { settled = append(settled, err) }))

	api.duringFn = func() {
		assert.Equal(t, map[string]int{"C": 0, "A": 1, "B": 2}, order(b.Attached()), "new order is shown before the call returns")
	}
	require.NoError(t, b.Reorder(context.Background(), 2, 0))

	assert.Equal(t, map[string]int{"C": 0, "A": 1, "B": 2}, order(b.Attached()))
	require.Len(t, api.bulk, 1)
	assert.Equal(t, []schema.OrderUpdate{{ID: "oc", DisplayOrder: 0}, {ID: "oa", DisplayOrder: 1}, {ID: "ob", DisplayOrder: 2}}, api.bulk[0])
	assert.Equal(t, []error{nil}, settled)
}

func TestReorderRollsBackOnFailure(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeAPI{bulkErr: boom}
	var settled []error
	b := New("O", api, catalog(), attachedABC(), WithOnSettled(func(err error) { settled = append(settled, err) }))

	err := b.Reorder(context.Background(), 0, 2)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2}, order(b.Attached()))
	assert.Equal(t, "oa", b.Attached()[0].ID)
	assert.Equal(t, []error{boom}, settled)

	assert.ErrorIs(t, b.Reorder(context.Background(), 0, 3), ErrOutOfRange)
}

func TestFailedReorderKeepsConcurrentChanges(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeAPI{bulkErr: boom}
	cat := append(catalog(), schema.Field{ID: "D", Name: "d"})
	b := New("O", api, cat, attachedABC())

	ctx := context.Background()
	yes := true
	api.duringFn = func() {
		require.NoError(t, b.Detach(ctx, "ob"))
		_, err := b.Attach(ctx, "D")
		require.NoError(t, err)
		_, err = b.UpdateSettings(ctx, "oc", Settings{Required: &yes})
		require.NoError(t, err)
	}
	assert.ErrorIs(t, b.Reorder(ctx, 0, 2), boom)

	var ids []string
	orders := map[string]int{}
	for _, of := range b.Attached() {
		ids = append(ids, of.ID)
		orders[of.ID] = of.DisplayOrder
	}
	assert.Equal(t, []string{"oa", "oc", "of_D"}, ids, "detached stays gone, attached stays last")
	assert.Equal(t, map[string]int{"oa": 0, "oc": 2, "of_D": 2}, orders)
	assert.True(t, b.Attached()[1].IsRequired, "settings changed meanwhile are kept")
}

func TestDetachKeepsGaps(t *testing.T) {
	api := &fakeAPI{}
	b := New("O", api, catalog(), attachedABC())

	require.NoError(t, b.Detach(context.Background(), "ob"))
	assert.Equal(t, []string{"ob"}, api.deleted)
	assert.Equal(t, map[string]int{"A": 0, "C": 2}, order(b.Attached()))
	assert.Empty(t, api.bulk)

	assert.ErrorIs(t, b.Detach(context.Background(), "ob"), ErrUnknownItem)
}

func TestUpdateSettingsIsPartial(t *testing.T) {
	api := &fakeAPI{}
	b := New("O", api, catalog(), []schema.ObjectField{{ID: "oa", FieldID: "A", Field: &schema.Field{ID: "A"}}})

	yes := true
	of, err := b.UpdateSettings(context.Background(), "oa", Settings{Required: &yes})
	require.NoError(t, err)
	assert.True(t, of.IsRequired)
	assert.NotNil(t, of.Field, "embedded field is kept")
	assert.Equal(t, schema.ObjectFieldUpdate{IsRequired: &yes}, api.updated["oa"])
}

func TestDragStateMachine(t *testing.T) {
	api := &fakeAPI{}
	b := New("O", api, catalog(), []schema.ObjectField{{ID: "oa", FieldID: "A"}})
	ctx := context.Background()

	assert.ErrorIs(t, b.PointerDown(Item{Source: FromAvailable, ID: "A"}, Point{}), ErrNotDraggable)

	// A short move is a click, not a drag.
	require.NoError(t, b.PointerDown(Item{Source: FromAvailable, ID: "B"}, Point{X: 10, Y: 10}))
	assert.Equal(t, Pressed, b.PointerMove(Point{X: 13, Y: 14}))
	require.NoError(t, b.Drop(ctx, Target{Zone: ZoneAttach}))
	assert.Empty(t, api.created)
	assert.Equal(t, Idle, b.State())

	require.NoError(t, b.PointerDown(Item{Source: FromAvailable, ID: "B"}, Point{X: 0, Y: 0}))
	assert.Equal(t, Dragging, b.PointerMove(Point{X: 0, Y: 8}))
	require.NoError(t, b.Drop(ctx, Target{Zone: ZoneNone}))
	assert.Empty(t, api.created, "dropping elsewhere is a no-op")

	require.NoError(t, b.PointerDown(Item{Source: FromAvailable, ID: "B"}, Point{}))
	b.PointerMove(Point{X: 20})
	require.NoError(t, b.Drop(ctx, Target{Zone: ZoneAttach}))
	require.Len(t, api.created, 1)
	assert.Equal(t, "B", api.created[0].FieldID)

	require.NoError(t, b.PointerDown(Item{Source: FromAttached, ID: "of_B"}, Point{}))
	b.PointerMove(Point{X: 20})
	require.NoError(t, b.Drop(ctx, Target{Zone: ZoneCard, AttachmentID: "oa"}))
	assert.Equal(t, map[string]int{"B": 0, "A": 1}, order(b.Attached()))

	require.NoError(t, b.PointerDown(Item{Source: FromAttached, ID: "oa"}, Point{}))
	b.Cancel()
	assert.Equal(t, Idle, b.State())
}
