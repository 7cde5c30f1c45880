package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb"
	"github.com/spf13/cobra"
)

// NewWadoCmd downloads a study, series or instance with WADO-RS
func NewWadoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wado <StudyInstanceUID>",
		Short: "WADO-RS download of a study, series or instance",
		Long: "Retrieves {url}/studies/{uid}[/series/{uid}[/instances/{uid}]] and writes each instance as wado-NNNNNN.dcm.\n" +
			"With --metadata the DICOM-JSON of every instance is printed instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			series, _ := cmd.Flags().GetString("series")
			instance, _ := cmd.Flags().GetString("instance")
			metadata, _ := cmd.Flags().GetBool("metadata")
			res := dicomweb.Resource{
				StudyInstanceUID:  args[0],
				SeriesInstanceUID: series,
				SOPInstanceUID:    instance,
			}

			cl, err := newClient(cmd)
			if err != nil {
				return err
			}
			if metadata {
				datasets, err := cl.RetrieveMetadata(ctx, res)
				if err != nil {
					return err
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(datasets)
			}

			parts, err := cl.Retrieve(ctx, res)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}
			for i, p := range parts {
				path := filepath.Join(outDir, fmt.Sprintf("wado-%06d.dcm", i+1))
				fmt.Fprintf(cmd.OutOrStdout(), "Storing DICOM file: %s\n", path)
				if err := os.WriteFile(path, p.Data, 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("out", "o", ".", "directory to write instances into")
	pf.String("series", "", "SeriesInstanceUID to retrieve within the study")
	pf.String("instance", "", "SOPInstanceUID to retrieve within --series")
	pf.Bool("metadata", false, "print the DICOM-JSON metadata instead of downloading")
	return cmd
}
