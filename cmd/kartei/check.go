package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the collection for structural problems without modifying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			col, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = col.Close(ctx, false)
			}()

			ok, err := col.BasicCheck(ctx)
			if err != nil {
				return fmt.Errorf("collection.BasicCheck > %w", err)
			}
			if !ok {
				color.Red("Problems were found in the collection. Run 'kartei fix' to repair them.")
				return nil
			}
			color.Green("No problems found.")
			return nil
		},
	}
}

func newFixCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "Repair structural problems in the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			col, err := openCollection(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = col.Close(ctx, true)
			}()

			report, ok := col.FixIntegrity(ctx)
			if !ok {
				color.Red("%s", report)
				return nil
			}
			fmt.Println(report)
			return nil
		},
	}
}
