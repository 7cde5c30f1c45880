package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jpfielding/dicomweb.go/pkg/config"
	"github.com/spf13/cobra"
)

// NewServersCmd lists the servers of --config
func NewServersCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "list configured DICOMweb servers",
		Long:  "list configured DICOMweb servers, the default marked with *",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				return fmt.Errorf("--config (or DICOMWEB_CONFIG) is required")
			}
			cfg, err := config.ReadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range cfg.Names() {
				s := cfg.Servers[name]
				mark := " "
				if name == cfg.Default {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, name, s.URL, s.Timeout())
			}
			return tw.Flush()
		},
	}
	return cmd
}
