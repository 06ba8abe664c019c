// Package board implements the field attachment board of an object:
// available fields on one side, attached fields on the other, with drag to
// attach and drag to reorder.
package board

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// ActivationDistance is how far the pointer must travel after a press
// before a drag starts.
const ActivationDistance = 8.0

var (
	ErrAlreadyAttached = errors.New("field is already attached")
	ErrUnknownField    = errors.New("field is not in the catalogue")
	ErrUnknownItem     = errors.New("attachment not found")
	ErrNotDraggable    = errors.New("item cannot be dragged")
	ErrOutOfRange      = errors.New("position out of range")
)

type State int

const (
	Idle State = iota
	Pressed
	Dragging
)

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	}
	return "idle"
}

type Point struct{ X, Y float64 }

// Source tells which list a dragged item came from.
type Source int

const (
	FromAvailable Source = iota
	FromAttached
)

// Item is what the pointer picked up. ID is a field id for available items
// and an attachment id for attached ones.
type Item struct {
	Source Source
	ID     string
}

type Zone int

const (
	ZoneNone Zone = iota
	// ZoneAttach is the attached-fields drop zone.
	ZoneAttach
	// ZoneCard is an attached card; AttachmentID names it.
	ZoneCard
)

type Target struct {
	Zone         Zone
	AttachmentID string
}

// Settings is a partial update of one attachment's flags.
type Settings struct {
	Required *bool
	Visible  *bool
	Readonly *bool
}

type Option func(*Board)

// WithOnSettled registers a hook called after every reorder, with the
// error of the bulk call or nil.
func WithOnSettled(fn func(error)) Option {
	return func(b *Board) { b.onSettled = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Board) { b.log = l }
}

// Board is the attachment board of one object.
type Board struct {
	mu sync.Mutex

	objectID string
	api      sdk.ObjectFieldsAPI
	catalog  []schema.Field
	attached []schema.ObjectField

	state  State
	origin Point
	item   Item

	onSettled func(error)
	log       *zap.Logger
}

// New builds a board over the field catalogue and the object's current
// attachments.
func New(objectID string, api sdk.ObjectFieldsAPI, catalog []schema.Field, attached []schema.ObjectField, opts ...Option) *Board {
	b := &Board{
		objectID: objectID,
		api:      api,
		catalog:  slices.Clone(catalog),
		attached: sortByOrder(attached),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func sortByOrder(ofs []schema.ObjectField) []schema.ObjectField {
	out := slices.Clone(ofs)
	slices.SortStableFunc(out, func(a, b schema.ObjectField) int { return a.DisplayOrder - b.DisplayOrder })
	return out
}

// Refresh reloads the attachments from the backend.
func (b *Board) Refresh(ctx context.Context) error {
	ofs, err := b.api.List(ctx, b.objectID)
	if err != nil {
		return fmt.Errorf("refresh board %s: %w", b.objectID, err)
	}
	b.mu.Lock()
	b.attached = sortByOrder(ofs)
	b.mu.Unlock()
	return nil
}

// Attached returns the attachments in display order.
func (b *Board) Attached() []schema.ObjectField {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.attached)
}

// Available returns catalogue fields not attached to the object, in
// catalogue order.
func (b *Board) Available() []schema.Field {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.availableLocked()
}

func (b *Board) availableLocked() []schema.Field {
	taken := make(map[string]struct{}, len(b.attached))
	for _, of := range b.attached {
		taken[of.FieldID] = struct{}{}
	}
	out := make([]schema.Field, 0, len(b.catalog))
	for _, f := range b.catalog {
		if _, ok := taken[f.ID]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// --- Drag state machine ---

// PointerDown presses on an item. Attached fields cannot be picked up from
// the available list.
func (b *Board) PointerDown(item Item, at Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch item.Source {
	case FromAvailable:
		if !slices.ContainsFunc(b.availableLocked(), func(f schema.Field) bool { return f.ID == item.ID }) {
			return ErrNotDraggable
		}
	case FromAttached:
		if b.indexLocked(item.ID) < 0 {
			return ErrNotDraggable
		}
	}
	b.state, b.item, b.origin = Pressed, item, at
	return nil
}

// PointerMove starts the drag once the pointer has travelled
// ActivationDistance from the press.
func (b *Board) PointerMove(at Point) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Pressed && math.Hypot(at.X-b.origin.X, at.Y-b.origin.Y) >= ActivationDistance {
		b.state = Dragging
	}
	return b.state
}

// Cancel abandons the current gesture.
func (b *Board) Cancel() {
	b.mu.Lock()
	b.state, b.item = Idle, Item{}
	b.mu.Unlock()
}

// Drop ends the gesture. Only an active drag does anything: an available
// field dropped on the attach zone is attached, an attached card dropped
// on another card is moved to its position. Anything else is a no-op.
func (b *Board) Drop(ctx context.Context, target Target) error {
	b.mu.Lock()
	state, item := b.state, b.item
	b.state, b.item = Idle, Item{}
	b.mu.Unlock()

	if state != Dragging {
		return nil
	}
	switch {
	case item.Source == FromAvailable && target.Zone == ZoneAttach:
		_, err := b.Attach(ctx, item.ID)
		return err
	case item.Source == FromAttached && target.Zone == ZoneCard && target.AttachmentID != item.ID:
		return b.Move(ctx, item.ID, target.AttachmentID)
	}
	return nil
}

// --- Mutations ---

func (b *Board) indexLocked(attachmentID string) int {
	return slices.IndexFunc(b.attached, func(of schema.ObjectField) bool { return of.ID == attachmentID })
}

// Attach appends a field with default flags: optional, visible, editable.
func (b *Board) Attach(ctx context.Context, fieldID string) (schema.ObjectField, error) {
	b.mu.Lock()
	if slices.ContainsFunc(b.attached, func(of schema.ObjectField) bool { return of.FieldID == fieldID }) {
		b.mu.Unlock()
		return schema.ObjectField{}, fmt.Errorf("%w: %s", ErrAlreadyAttached, fieldID)
	}
	if !slices.ContainsFunc(b.catalog, func(f schema.Field) bool { return f.ID == fieldID }) {
		b.mu.Unlock()
		return schema.ObjectField{}, fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	in := schema.ObjectFieldCreate{
		ObjectID:     b.objectID,
		FieldID:      fieldID,
		IsRequired:   false,
		IsVisible:    true,
		IsReadonly:   false,
		DisplayOrder: len(b.attached),
	}
	b.mu.Unlock()

	of, err := b.api.Create(ctx, in)
	if err != nil {
		return schema.ObjectField{}, err
	}
	b.mu.Lock()
	b.attached = append(b.attached, of)
	b.mu.Unlock()
	b.log.Debug("field attached", zap.String("object", b.objectID), zap.String("field", fieldID))
	return of, nil
}

// Move places an attachment at the position of another one.
func (b *Board) Move(ctx context.Context, attachmentID, targetID string) error {
	b.mu.Lock()
	from, to := b.indexLocked(attachmentID), b.indexLocked(targetID)
	b.mu.Unlock()
	if from < 0 || to < 0 {
		return ErrUnknownItem
	}
	return b.Reorder(ctx, from, to)
}

// Reorder moves the attachment at index from to index to, renumbers every
// attachment 0..n-1 and persists all orders in one bulk call. The new order
// is visible immediately; if the call fails only the orders are rolled back,
// so attachments added, removed or edited meanwhile are kept.
func (b *Board) Reorder(ctx context.Context, from, to int) error {
	b.mu.Lock()
	n := len(b.attached)
	if from < 0 || from >= n || to < 0 || to >= n {
		b.mu.Unlock()
		return ErrOutOfRange
	}
	prev := slices.Clone(b.attached)
	next := slices.Clone(b.attached)
	moved := next[from]
	next = slices.Delete(next, from, from+1)
	next = slices.Insert(next, to, moved)

	updates := make([]schema.OrderUpdate, len(next))
	for i := range next {
		next[i].DisplayOrder = i
		updates[i] = schema.OrderUpdate{ID: next[i].ID, DisplayOrder: i}
	}
	b.attached = next
	b.mu.Unlock()

	err := b.api.BulkUpdateOrder(ctx, updates)
	if err != nil {
		b.mu.Lock()
		b.attached = restoreOrder(b.attached, prev)
		b.mu.Unlock()
		b.log.Warn("reorder rolled back", zap.String("object", b.objectID), zap.Error(err))
	}
	if b.onSettled != nil {
		b.onSettled(err)
	}
	return err
}

// restoreOrder gives the attachments in cur their display order and relative
// position from prev. Attachments missing from prev go last, in cur order.
func restoreOrder(cur, prev []schema.ObjectField) []schema.ObjectField {
	pos := make(map[string]int, len(prev))
	for i, of := range prev {
		pos[of.ID] = i
	}
	out := slices.Clone(cur)
	for i := range out {
		if p, ok := pos[out[i].ID]; ok {
			out[i].DisplayOrder = prev[p].DisplayOrder
		}
	}
	slices.SortStableFunc(out, func(a, b schema.ObjectField) int {
		pa, okA := pos[a.ID]
		pb, okB := pos[b.ID]
		switch {
		case okA && okB:
			return pa - pb
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return out
}

// Detach removes one attachment. The remaining orders keep their gaps.
func (b *Board) Detach(ctx context.Context, attachmentID string) error {
	b.mu.Lock()
	idx := b.indexLocked(attachmentID)
	b.mu.Unlock()
	if idx < 0 {
		return ErrUnknownItem
	}
	if err := b.api.Delete(ctx, attachmentID); err != nil {
		return err
	}
	b.mu.Lock()
	if i := b.indexLocked(attachmentID); i >= 0 {
		b.attached = slices.Delete(b.attached, i, i+1)
	}
	b.mu.Unlock()
	return nil
}

// UpdateSettings sends only the flags that are set.
func (b *Board) UpdateSettings(ctx context.Context, attachmentID string, s Settings) (schema.ObjectField, error) {
	b.mu.Lock()
	idx := b.indexLocked(attachmentID)
	b.mu.Unlock()
	if idx < 0 {
		return schema.ObjectField{}, ErrUnknownItem
	}
	of, err := b.api.Update(ctx, attachmentID, schema.ObjectFieldUpdate{
		IsRequired: s.Required,
		IsVisible:  s.Visible,
		IsReadonly: s.Readonly,
	})
	if err != nil {
		return schema.ObjectField{}, err
	}
	b.mu.Lock()
	if i := b.indexLocked(attachmentID); i >= 0 {
		if of.Field == nil {
			of.Field = b.attached[i].Field
		}
		b.attached[i] = of
	}
	b.mu.Unlock()
	return of, nil
}
