// clipfs: the system clipboard as a read-only filesystem.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipfs",
		Short: "Mount the system clipboard as a read-only filesystem",
		Long: `clipfs exposes every MIME representation currently held by the system
clipboard as a file, so any program that can read files can read the
clipboard:

  /clipboard/text/file.plain
  /clipboard/text/file.html
  /clipboard/image/file.png

Run "clipfs mount <dir>" to mount, "clipfs status" to inspect a running mount.

Config file search order (first found wins):
  /etc/clipfs/clipfs.toml
  $XDG_CONFIG_HOME/clipfs/clipfs.toml (default ~/.config/clipfs)
  path supplied via --config

All flags can be set via CLIPFS_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMountCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipfs %s\n", Version)
		},
	}
}
