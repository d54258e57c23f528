package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	get_hover "github.com/walteh/tshover/cmd/tshover/get-hover"
	serve_lsp "github.com/walteh/tshover/cmd/tshover/serve-lsp"
)

func main() {
	if err := newRootCommand(buildVersion()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errors.Errorf("tshover: %w", err))
		os.Exit(1)
	}
}

// buildVersion prefers the module version and falls back to the vcs
// revision for builds from a checkout.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	return "(devel)"
}

func newRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "tshover",
		Short:         "TypeScript hover information from tsserver",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:    "raw-version",
		Hidden: true,
		Args:   cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.Root().Version)
		},
	})
	root.AddCommand(serve_lsp.NewServeLSPCommand())
	root.AddCommand(get_hover.NewGetHoverCommand())

	return root
}
