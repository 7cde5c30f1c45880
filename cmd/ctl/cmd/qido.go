package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/dicomjson"
	"github.com/spf13/cobra"
)

// NewQidoCmd searches with QIDO-RS
func NewQidoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qido [studies|series|instances]",
		Short: "QIDO-RS search",
		Long: "Searches {url}/{level} with one -q KEY=VALUE per matching attribute and lists\n" +
			"patient ID - patient name - study description - series description - URL",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, _ := cmd.Flags().GetStringArray("query")
			format, _ := cmd.Flags().GetString("format")
			study, _ := cmd.Flags().GetString("study")
			series, _ := cmd.Flags().GetString("series")

			level := dicomweb.Series
			if len(args) > 0 {
				var err error
				if level, err = dicomweb.ParseLevel(args[0]); err != nil {
					return err
				}
			}
			params, err := parseQuery(queries)
			if err != nil {
				return err
			}
			cl, err := newClient(cmd)
			if err != nil {
				return err
			}

			scope := dicomweb.Resource{StudyInstanceUID: study, SeriesInstanceUID: series}
			results, err := cl.SearchWithin(ctx, scope, level, params)
			if err != nil {
				return fmt.Errorf("failed to search %s: %w", level, err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				summaries := make([]dicomjson.SeriesSummary, 0, len(results))
				for _, ds := range results {
					summaries = append(summaries, dicomjson.Summarize(ds))
				}
				return json.NewEncoder(out).Encode(summaries)
			case "raw": // the DICOM-JSON as the server sent it
				return json.NewEncoder(out).Encode(results)
			case "tags":
				return printAttributes(out, results)
			default:
				for _, ds := range results {
					fmt.Fprintln(out, dicomjson.Summarize(ds))
				}
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringArrayP("query", "q", nil, "KEY=VALUE match, repeatable (PatientID=PAT*, 0020000D=1.2.3, limit=10)")
	pf.StringP("format", "f", "text", "output format (text|json|raw|tags)")
	pf.String("study", "", "search within this StudyInstanceUID ({url}/studies/{uid}/{level})")
	pf.String("series", "", "search within this SeriesInstanceUID, needs --study")
	return cmd
}

// printAttributes dumps every attribute of each result, one per line
func printAttributes(w io.Writer, results []dicomjson.Dataset) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, ds := range results {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		for _, a := range dicomjson.Attributes(ds) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Tag, a.Name, a.VR, a.Text)
		}
	}
	return tw.Flush()
}

func parseQuery(queries []string) (url.Values, error) {
	params := url.Values{}
	for _, q := range queries {
		k, v, ok := strings.Cut(q, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("query %q: want KEY=VALUE", q)
		}
		params.Add(k, v)
	}
	return params, nil
}
