package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
)

func newTemplatesCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the node template catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			registry := catalog.NewRegistry()
			if cfg.Catalog.OverlayPath != "" {
				if err := registry.LoadOverlay(cfg.Catalog.OverlayPath); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tVERSION\tCATEGORY\tCREDENTIALS\tDESCRIPTION")
			for _, t := range registry.Templates() {
				creds := "-"
				if t.CredentialsRequired {
					creds = t.DefaultCredentials
				}
				fmt.Fprintf(w, "%s\t%g\t%s\t%s\t%s\n",
					t.Type, t.TypeVersion, t.Category, creds, t.Description)
			}
			return w.Flush()
		},
	}
	return cmd
}
