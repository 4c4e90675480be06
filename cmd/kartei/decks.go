package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/kartei/internal/deck"
)

func newDecksCommand() *cobra.Command {
	decksCmd := &cobra.Command{
		Use:   "decks",
		Short: "Manage decks in the collection",
	}

	decksCmd.AddCommand(newDecksListCommand())

	return decksCmd
}

func newDecksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List decks in the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			col, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = col.Close(ctx, false)
			}()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tORDER")
			for _, d := range col.Decks.All() {
				order := "sequential"
				if conf := col.Decks.ConfigFor(d.ID); conf != nil && conf.NewCardOrder == deck.OrderRandom {
					order = "random"
				}
				if d.Filtered {
					order = "filtered"
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", d.ID, d.Name, order)
			}
			_ = w.Flush()

			return nil
		},
	}
}
