package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/dicomweb.go/pkg/config"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb"
	"github.com/jpfielding/dicomweb.go/pkg/logging"
	"github.com/spf13/cobra"
)

// DefaultURL is the DICOMweb root of a stock Orthanc with the plugin enabled
const DefaultURL = "http://localhost:8042/dicom-web"

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dicomwebctl",
		Short:        "a CLI to query and store DICOM objects over DICOMweb",
		Long:         "QIDO-RS search, STOW-RS upload and WADO-RS download against a DICOMweb server",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")
			logJSON, _ := cmd.Flags().GetBool("log-json")

			// Parse log level
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				level = slog.LevelInfo
			}
			var w io.Writer = os.Stderr
			if logFile != "" {
				w = logging.RotatingFile(logFile, 10, 3, 28)
			}
			slog.SetDefault(logging.Logger(w, logJSON, level))

			if err != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", err)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewStowCmd(ctx),
		NewQidoCmd(ctx),
		NewWadoCmd(ctx),
		NewServersCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "write logs to this rotating file instead of stderr")
	pf.Bool("log-json", false, "log as JSON")
	pf.StringP("config", "c", config.GetEnv("DICOMWEB_CONFIG", ""), "YAML registry of DICOMweb servers")
	pf.StringP("server", "s", "", "server name from --config (default: its default server)")
	pf.StringP("url", "u", config.GetEnv("DICOMWEB_URL", ""), "DICOMweb root URL, overrides --config")
	pf.Duration("timeout", 0, "HTTP timeout (default: the server's, else 30s)")
	return cmd
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}

// newClient resolves --url, then --config/--server, then the Orthanc default
func newClient(cmd *cobra.Command) (*dicomweb.Client, error) {
	baseURL, _ := cmd.Flags().GetString("url")
	cfgPath, _ := cmd.Flags().GetString("config")
	name, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	serverTimeout := config.DefaultTimeout
	switch {
	case baseURL != "":
	case cfgPath != "":
		cfg, err := config.ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		server, err := cfg.Server(name)
		if err != nil {
			return nil, err
		}
		baseURL, serverTimeout = server.URL, server.Timeout()
	default:
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = serverTimeout
	}
	return dicomweb.NewClient(baseURL, timeout), nil
}

