package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/internal/board"
	"github.com/celerix-dev/celerix-builder/internal/nav"
)

var (
	settingRequired bool
	settingVisible  bool
	settingReadonly bool
)

// board opens the attachment board of one object.
func (a *app) board(ctx context.Context, objectID string) (*board.Board, error) {
	catalog, err := a.fields(ctx)
	if err != nil {
		return nil, err
	}
	attached, err := a.attachments(ctx, objectID)
	if err != nil {
		return nil, err
	}
	return board.New(objectID, a.client.ObjectFields(), catalog, attached,
		board.WithLogger(logger.Named("board")),
		board.WithOnSettled(func(err error) {
			a.cache.InvalidateKey(resObjectFields, objectID)
			if err != nil {
				logger.Warn("reorder failed", zap.String("object", objectID), zap.Error(err))
			}
		}),
	), nil
}

var objectFieldsCmd = &cobra.Command{
	Use:     "object-fields",
	Aliases: []string{"of"},
	Short:   "Attach, detach, reorder and configure fields on an object",
}

var attachCmd = &cobra.Command{
	Use:         "attach <object> <field>",
	Short:       "Attach a catalogue field at the end of the object",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		o, err := a.findObject(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		f, err := a.findField(ctx, args[1])
		if err != nil {
			return a.fail(err)
		}
		b, err := a.board(ctx, o.ID)
		if err != nil {
			return a.fail(err)
		}
		of, err := b.Attach(ctx, f.ID)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Attached %s to %s at position %d.", f.Name, o.Name, of.DisplayOrder)
		return nil
	},
}

var detachCmd = &cobra.Command{
	Use:         "detach <object> <field>",
	Short:       "Detach a field from the object",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		o, err := a.findObject(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		b, err := a.board(ctx, o.ID)
		if err != nil {
			return a.fail(err)
		}
		of, ok := findAttachment(b.Attached(), args[1])
		if !ok {
			return a.fail(fmt.Errorf("%w: %s", board.ErrUnknownItem, args[1]))
		}
		if err := a.confirm(ctx, "detach "+args[1], func(ctx context.Context) error {
			return b.Detach(ctx, of.ID)
		}); err != nil {
			return err
		}
		a.ok("Detached %s from %s.", args[1], o.Name)
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:         "move <object> <field> <position>",
	Short:       "Move an attached field to a 0-based position",
	Args:        cobra.ExactArgs(3),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		to, err := strconv.Atoi(args[2])
		if err != nil {
			return a.fail(fmt.Errorf("position must be a number: %w", err))
		}
		o, err := a.findObject(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		b, err := a.board(ctx, o.ID)
		if err != nil {
			return a.fail(err)
		}
		attached := b.Attached()
		of, ok := findAttachment(attached, args[1])
		if !ok {
			return a.fail(fmt.Errorf("%w: %s", board.ErrUnknownItem, args[1]))
		}
		from := -1
		for i := range attached {
			if attached[i].ID == of.ID {
				from = i
			}
		}
		if err := b.Reorder(ctx, from, to); err != nil {
			return a.fail(err)
		}
		a.ok("Moved %s to position %d.", args[1], to)
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:         "settings <object> <field>",
	Short:       "Change the required, visible and readonly flags of an attachment",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		o, err := a.findObject(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		b, err := a.board(ctx, o.ID)
		if err != nil {
			return a.fail(err)
		}
		of, ok := findAttachment(b.Attached(), args[1])
		if !ok {
			return a.fail(fmt.Errorf("%w: %s", board.ErrUnknownItem, args[1]))
		}
		var s board.Settings
		if cmd.Flags().Changed("required") {
			s.Required = ptr(settingRequired)
		}
		if cmd.Flags().Changed("visible") {
			s.Visible = ptr(settingVisible)
		}
		if cmd.Flags().Changed("readonly") {
			s.Readonly = ptr(settingReadonly)
		}
		updated, err := b.UpdateSettings(ctx, of.ID, s)
		if err != nil {
			return a.fail(err)
		}
		a.ok("required=%s visible=%s readonly=%s", yesNo(updated.IsRequired), yesNo(updated.IsVisible), yesNo(updated.IsReadonly))
		return nil
	},
}

func init() {
	settingsCmd.Flags().BoolVar(&settingRequired, "required", false, "value must be provided")
	settingsCmd.Flags().BoolVar(&settingVisible, "visible", true, "show in forms and tables")
	settingsCmd.Flags().BoolVar(&settingReadonly, "readonly", false, "shown but not editable")

	addYesFlag(detachCmd)
	objectFieldsCmd.AddCommand(attachCmd, detachCmd, moveCmd, settingsCmd)
	rootCmd.AddCommand(objectFieldsCmd)
}
