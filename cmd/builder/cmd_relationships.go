package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-builder/internal/features"
	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

var (
	relObject  string
	relIn      schema.RelationshipCreate
	relType    string
	candidateQ string
)

var relationshipsCmd = &cobra.Command{
	Use:     "relationships",
	Aliases: []string{"rels"},
	Short:   "Manage relationships between objects and the links between records",
}

var relationshipsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List relationships",
	Annotations: map[string]string{routeKey: nav.Relationships},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		rels, err := a.relationships(ctx)
		if err != nil {
			return a.fail(err)
		}
		objs, err := a.objects(ctx)
		if err != nil {
			return a.fail(err)
		}
		if relObject != "" {
			o, err := a.findObject(ctx, relObject)
			if err != nil {
				return a.fail(err)
			}
			rels = features.ForObject(rels, o.ID)
		}
		page := features.RelationshipList(rels, features.ListQuery{Search: listSearch, Chip: listChip, Page: listPage, PageSize: a.cfg.Display.PageSize})
		if jsonOut {
			a.printJSON(page.Items)
			return nil
		}
		label := objectName(objs)
		rows := make([][]string, 0, len(page.Items))
		for _, r := range page.Items {
			rows = append(rows, []string{r.Name, label(r.FromObjectID), a.styles.Pills([]string{string(r.Type)}), label(r.ToObjectID), r.FromLabel + " / " + r.ToLabel})
		}
		a.printGrid("Relationships", []string{"Name", "From", "Type", "To", "Labels"}, rows)
		if len(rows) > 0 {
			a.printFooter(page.Page, page.TotalPages, page.Total)
		}
		return nil
	},
}

var relationshipsCreateCmd = &cobra.Command{
	Use:         "create <name> <from-object> <to-object>",
	Short:       "Declare a relationship between two objects",
	Args:        cobra.ExactArgs(3),
	Annotations: map[string]string{routeKey: nav.Relationships},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		from, err := a.findObject(ctx, args[1])
		if err != nil {
			return a.fail(err)
		}
		to, err := a.findObject(ctx, args[2])
		if err != nil {
			return a.fail(err)
		}
		in := relIn
		in.Name = args[0]
		in.FromObjectID = from.ID
		in.ToObjectID = to.ID
		in.Type = schema.RelationshipType(relType)
		if in.FromLabel == "" {
			in.FromLabel = to.PluralName
		}
		if in.ToLabel == "" {
			in.ToLabel = from.Label
		}
		if errs := features.ValidateRelationshipCreate(in); len(errs) > 0 {
			return a.fail(&sdk.APIError{Message: sdk.ValidationMessage, Errors: errs})
		}
		r, err := a.client.Relationships().Create(ctx, in)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Created relationship %s (%s).", r.Name, r.Type)
		return nil
	},
}

var relationshipsDeleteCmd = &cobra.Command{
	Use:         "delete <relationship>",
	Short:       "Delete a relationship and all its links",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.Relationships},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		r, err := a.findRelationship(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		if err := a.confirm(cmd.Context(), "delete relationship "+r.Name, func(ctx context.Context) error {
			return a.client.Relationships().Delete(ctx, r.ID)
		}); err != nil {
			return err
		}
		a.ok("Deleted relationship %s.", r.Name)
		return nil
	},
}

// panel opens the related panel of one record seen from one object.
func (a *app) panel(ctx context.Context, relRef, objRef, recordID string) (*features.RelatedPanel, error) {
	r, err := a.findRelationship(ctx, relRef)
	if err != nil {
		return nil, err
	}
	o, err := a.findObject(ctx, objRef)
	if err != nil {
		return nil, err
	}
	return features.NewRelatedPanel(r, o.ID, recordID, a.client.Relationships(), a.client.Records())
}

var relatedCmd = &cobra.Command{
	Use:         "related <relationship> <object> <record-id>",
	Short:       "List the records linked to a record",
	Args:        cobra.ExactArgs(3),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		p, err := a.panel(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return a.fail(err)
		}
		related, err := p.Load(cmd.Context())
		if err != nil {
			return a.fail(err)
		}
		if jsonOut {
			a.printJSON(related)
			return nil
		}
		rows := make([][]string, 0, len(related))
		for _, r := range related {
			text := a.styles.Muted.Render("(record unavailable)")
			if r.Record != nil {
				text = features.RecordText(*r.Record)
			}
			other := r.Link.ToRecordID
			if p.Side.Direction == features.Incoming {
				other = r.Link.FromRecordID
			}
			rows = append(rows, []string{r.Link.ID, other, text})
		}
		a.printGrid(p.Side.Label, []string{"Link", "Record", "Values"}, rows)
		return nil
	},
}

var candidatesCmd = &cobra.Command{
	Use:         "candidates <relationship> <object> <record-id>",
	Short:       "Search records that can be linked to a record",
	Args:        cobra.ExactArgs(3),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		p, err := a.panel(ctx, args[0], args[1], args[2])
		if err != nil {
			return a.fail(err)
		}
		existing, err := p.Load(ctx)
		if err != nil {
			return a.fail(err)
		}
		recs, err := p.Candidates(ctx, candidateQ, existing)
		if err != nil {
			return a.fail(err)
		}
		if jsonOut {
			a.printJSON(recs)
			return nil
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{r.ID, features.RecordText(r)})
		}
		a.printGrid("Candidates", []string{"Record", "Values"}, rows)
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:         "link <relationship> <object> <record-id> <other-record-id>",
	Short:       "Link two records",
	Args:        cobra.ExactArgs(4),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		p, err := a.panel(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return a.fail(err)
		}
		l, err := p.Link(cmd.Context(), args[3], nil)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Linked %s to %s (%s).", args[2], args[3], l.ID)
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:         "unlink <relationship> <link-id>",
	Short:       "Remove a link; both records stay",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		r, err := a.findRelationship(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		if err := a.confirm(cmd.Context(), "remove link "+args[1], func(ctx context.Context) error {
			return a.client.Relationships().Unlink(ctx, r.ID, args[1])
		}); err != nil {
			return err
		}
		a.ok("Removed link %s.", args[1])
		return nil
	},
}

func init() {
	addListFlags(relationshipsListCmd, "type")
	relationshipsListCmd.Flags().StringVar(&relObject, "object", "", "only relationships of this object")

	relationshipsCreateCmd.Flags().StringVar(&relType, "type", string(schema.OneToMany), "one_to_many or many_to_many")
	relationshipsCreateCmd.Flags().StringVar(&relIn.FromLabel, "from-label", "", "label shown on the source object (default: target plural)")
	relationshipsCreateCmd.Flags().StringVar(&relIn.ToLabel, "to-label", "", "label shown on the target object (default: source label)")
	relationshipsCreateCmd.Flags().StringVar(&relIn.Description, "description", "", "description")

	candidatesCmd.Flags().StringVarP(&candidateQ, "search", "s", "", "filter candidates by value")

	addYesFlag(relationshipsDeleteCmd, unlinkCmd)
	relationshipsCmd.AddCommand(relationshipsListCmd, relationshipsCreateCmd, relationshipsDeleteCmd,
		relatedCmd, candidatesCmd, linkCmd, unlinkCmd)
	rootCmd.AddCommand(relationshipsCmd)
}
