package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/propflow/propflow/internal/catalog"
)

func catalogCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the firm catalog",
	}
	cmd.PersistentFlags().StringVarP(&path, "file", "f", "config/catalog.yaml", "catalog file to inspect")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			fmt.Printf("OK: %d firms\n", len(c.Firms))
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog firms",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			for _, f := range c.Firms {
				fmt.Printf("%-12s %-28s %s\n", f.ID, f.Name, f.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(validateCmd)
	cmd.AddCommand(listCmd)
	return cmd
}
