// Package pgembedctl is a thin operational CLI over the binary cache:
// purging the shared cache and inspecting the resolved path for a given
// (os, arch, version) tuple. It is ambient tooling, not the embedding
// application's own configuration surface (out of scope per spec.md §1),
// mirroring vbp1-pgclone's internal/cli/root.go + cmd/pgclone/main.go split.
package pgembedctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgembed/pgembed/internal/acquire"
	"github.com/pgembed/pgembed/internal/cachelayout"
	"github.com/pgembed/pgembed/internal/platform"
)

// RootCmd is the entry point invoked from cmd/pgembedctl.
var RootCmd = &cobra.Command{
	Use:   "pgembedctl",
	Short: "Operational tooling for the pgembed shared binary cache",
}

var inspectFlags = struct {
	os      string
	arch    string
	version string
}{}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the resolved cache path for an os/arch/version tuple",
	RunE: func(cmd *cobra.Command, args []string) error {
		osTag, ok := platform.ParseOS(inspectFlags.os)
		if !ok {
			return fmt.Errorf("unknown os %q", inspectFlags.os)
		}
		arch, ok := platform.ParseArchitecture(inspectFlags.arch)
		if !ok {
			return fmt.Errorf("unknown arch %q", inspectFlags.arch)
		}
		version, ok := platform.VersionByMajor(inspectFlags.version)
		if !ok {
			return fmt.Errorf("unknown postgres major version %q", inspectFlags.version)
		}

		root, err := cachelayout.DefaultCacheRoot()
		if err != nil {
			return err
		}
		layout := cachelayout.Resolve(root, osTag, arch, version, "")
		fmt.Println(layout.CacheDir)
		if layout.Cached() {
			fmt.Println("status: cached")
		} else {
			fmt.Println("status: not cached")
		}
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the entire shared pg-embed cache and reset the acquisition registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := cachelayout.DefaultCacheRoot()
		if err != nil {
			return err
		}
		if err := acquire.Default().Purge(cachelayout.PurgeRoot(root)); err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		fmt.Println("cache purged")
		return nil
	},
}

// Execute parses flags and runs the selected subcommand.
func Execute() error { return RootCmd.Execute() }

func init() {
	inspectCmd.Flags().StringVar(&inspectFlags.os, "os", "linux", "target os (darwin|linux|windows)")
	inspectCmd.Flags().StringVar(&inspectFlags.arch, "arch", "amd64", "target architecture")
	inspectCmd.Flags().StringVar(&inspectFlags.version, "pg-major", "16", "postgresql major version (10-18)")

	RootCmd.AddCommand(inspectCmd)
	RootCmd.AddCommand(purgeCmd)
}
