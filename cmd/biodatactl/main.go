// Command biodatactl parses and profiles CSV/TSV files locally with the same
// rules the biodata service applies to uploads.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkglog"
)

// errResultFailed marks a command that printed a failure result.
var errResultFailed = errors.New("result is a failure")

func main() {
	pkglog.InitLogging(pkglog.Options{Level: "warn", Format: "text", Service: "biodatactl", Output: os.Stderr})

	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code. A failure
// result is already on stdout; any other error goes to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errResultFailed) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "biodatactl",
		Short:         "Inspect biological CSV/TSV datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(newPreviewCmd(), newProfileCmd())
	return root
}

func newPreviewCmd() *cobra.Command {
	var (
		offset, limit int
		format        string
	)

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Print the parsed rows of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if offset < 0 || limit < 0 {
				return fmt.Errorf("offset and limit must not be negative")
			}
			res := tabular.ParseFile(cmd.Context(), args[0], tabular.Window{Offset: offset, Limit: limit})
			return emit(cmd.OutOrStdout(), format, res, res.Success)
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Data rows to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to print (0 means all)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	return cmd
}

func newProfileCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "profile FILE",
		Short: "Print the column types and statistics of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := tabular.AnalyzeFile(cmd.Context(), args[0])
			return emit(cmd.OutOrStdout(), format, res, res.Success)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	return cmd
}

// emit writes v in the requested format. YAML goes through JSON so field
// names and cell values match the HTTP API.
func emit(w io.Writer, format string, v any, ok bool) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	switch format {
	case "json":
	case "yaml":
		if data, err = yaml.JSONToYAML(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid format: %s (must be json or yaml)", format)
	}

	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return err
	}
	if !ok {
		return errResultFailed
	}
	return nil
}
