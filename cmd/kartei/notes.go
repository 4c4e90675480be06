package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/kartei/internal/collection"
	"github.com/at-ishikawa/kartei/internal/model"
)

type SortFlag string

// Set implements pflag.Value.
func (s *SortFlag) Set(v string) error {
	switch v {
	case string(SortDescending):
		*s = SortDescending
	case string(SortAscending):
		*s = SortAscending
	default:
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, SortDescending, SortAscending)
	}
	return nil
}

// String implements pflag.Value.
func (s *SortFlag) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Type implements pflag.Value.
func (s *SortFlag) Type() string {
	return "SortFlag"
}

var (
	_ pflag.Value = (*SortFlag)(nil)
)

const (
	SortDescending SortFlag = "desc"
	SortAscending  SortFlag = "asc"
)

func newNotesCommand() *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes in the collection",
	}

	notesCmd.AddCommand(newNotesAddCommand())
	notesCmd.AddCommand(newNotesRemoveCommand())
	notesCmd.AddCommand(newNotesListCommand())

	return notesCmd
}

func newNotesAddCommand() *cobra.Command {
	var modelName string
	var tags []string
	var dryRun bool

	command := &cobra.Command{
		Use:   "add <field> [field...]",
		Short: "Add a note and generate its cards",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			col, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = col.Close(ctx, !dryRun)
			}()

			m, err := findModel(col, modelName)
			if err != nil {
				return err
			}

			n := col.NewNote(m)
			for i := range args {
				if i >= len(n.Fields) {
					return fmt.Errorf("model %q has only %d fields", m.Name, len(n.Fields))
				}
				n.Fields[i] = args[i]
			}
			n.SetTags(tags)

			if dryRun {
				cards, err := col.PreviewCards(ctx, n, collection.PreviewNonEmpty)
				if err != nil {
					return fmt.Errorf("collection.PreviewCards > %w", err)
				}
				fmt.Printf("Would generate %d card(s):\n", len(cards))
				for _, c := range cards {
					fmt.Printf("  ordinal %d in deck %q\n", c.Ordinal, col.Decks.Name(c.DeckID))
				}
				return nil
			}

			generated, err := col.AddNote(ctx, n)
			if err != nil {
				return fmt.Errorf("collection.AddNote > %w", err)
			}
			if generated == 0 {
				fmt.Println("No cards were generated. Fill in at least one field the model's templates use.")
				return nil
			}
			if err := col.Save(ctx, "Add Note"); err != nil {
				return fmt.Errorf("collection.Save > %w", err)
			}
			fmt.Printf("Added note %d with %d card(s).\n", n.ID, generated)
			return nil
		},
	}
	command.Flags().StringVar(&modelName, "model", "Basic", "Name of the note type to use")
	command.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach to the note")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the cards without writing anything")

	return command
}

func newNotesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> [id...]",
		Short: "Remove notes and their cards",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			noteIDs := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid note id %q: %w", arg, err)
				}
				noteIDs = append(noteIDs, id)
			}

			col, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = col.Close(ctx, true)
			}()

			if err := col.RemoveNotes(ctx, noteIDs); err != nil {
				return fmt.Errorf("collection.RemoveNotes > %w", err)
			}
			if err := col.Save(ctx, "Remove Notes"); err != nil {
				return fmt.Errorf("collection.Save > %w", err)
			}
			fmt.Printf("Removed %d note(s).\n", len(noteIDs))
			return nil
		},
	}
}

func newNotesListCommand() *cobra.Command {
	sortFlag := SortAscending
	command := &cobra.Command{
		Use:   "list",
		Short: "List notes in the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			col, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = col.Close(ctx, false)
			}()

			ids, err := col.Notes.AllIDs(ctx)
			if err != nil {
				return fmt.Errorf("notes.AllIDs > %w", err)
			}
			if len(ids) == 0 {
				fmt.Println("No notes yet. Use 'kartei notes add' to create one.")
				return nil
			}
			notes, err := col.Notes.ByIDs(ctx, ids)
			if err != nil {
				return fmt.Errorf("notes.ByIDs > %w", err)
			}
			if sortFlag == SortDescending {
				slices.Reverse(notes)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tMODEL\tSORT FIELD\tTAGS")
			for _, n := range notes {
				modelName := "?"
				if m, ok := col.Models.ByID(n.ModelID); ok {
					modelName = m.Name
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID, modelName, n.SortField, strings.Join(n.TagList(), " "))
			}
			_ = w.Flush()

			return nil
		},
	}
	command.Flags().Var(&sortFlag, "sort", "Sort order for the output. Options: asc, desc")

	return command
}

func findModel(col *collection.Collection, name string) (*model.Model, error) {
	for _, m := range col.Models.All() {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown note type %q", name)
}
