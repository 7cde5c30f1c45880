package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/multipart"
	"github.com/jpfielding/dicomweb.go/pkg/logging"
	"github.com/spf13/cobra"
)

// NewStowCmd uploads one file with STOW-RS
func NewStowCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stow <file|->",
		Short: "STOW-RS upload of one DICOM file",
		Long:  "Wraps the file in a multipart/related body and POSTs it to {url}/studies. Use - to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, _ := cmd.Flags().GetString("type")
			boundary, _ := cmd.Flags().GetString("boundary")
			study, _ := cmd.Flags().GetString("study")
			format, _ := cmd.Flags().GetString("format")

			payload, err := readPayload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			cl, err := newClient(cmd)
			if err != nil {
				return err
			}

			ctx := logging.AppendCtx(ctx, slog.String("file", args[0]))
			result, err := cl.Store(ctx, payload, dicomweb.StoreOptions{
				ContentType:      contentType,
				Boundary:         boundary,
				StudyInstanceUID: study,
			})
			if err != nil {
				return fmt.Errorf("failed to store %s: %w", args[0], err)
			}
			return printStoreResult(cmd.OutOrStdout(), format, result)
		},
	}
	pf := cmd.PersistentFlags()
	pf.String("type", multipart.DICOM, "content type of the part")
	pf.String("boundary", "", "multipart boundary (default: random UUID)")
	pf.String("study", "", "StudyInstanceUID to store into ({url}/studies/{uid})")
	pf.StringP("format", "f", "text", "output format (text|json)")
	return cmd
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		payload, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return payload, nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return payload, nil
}

func printStoreResult(w io.Writer, format string, result *dicomweb.StoreResult) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(result)
	}
	fmt.Fprintln(w, "WADO-RS URL of the uploaded instances:")
	for _, inst := range result.Stored {
		fmt.Fprintln(w, inst.RetrieveURL)
	}
	for _, inst := range result.Failed {
		fmt.Fprintf(w, "failed: %s (reason %s)\n", inst.SOPInstanceUID, inst.FailureReason)
	}
	fmt.Fprintln(w, "WADO-RS URL of the study:")
	if result.RetrieveURL == "" {
		fmt.Fprintln(w, "No instance was uploaded!")
		return nil
	}
	fmt.Fprintln(w, result.RetrieveURL)
	return nil
}
