package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"go.klb.dev/clipfs/internal/ipc"
	"go.klb.dev/clipfs/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what a running mount currently serves",
		Long: `Queries the running clipfs daemon over its Unix socket and prints, per
clipboard mode, the snapshot generation, when it was taken and every MIME
type it holds with its file path, size and BLAKE3 digest.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	f := cmd.Flags()
	f.String("socket", "", "status socket path (default: $XDG_RUNTIME_DIR/clipfs.sock)")
	f.StringP("output", "o", "table", "output format: table|json|yaml")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	socket := v.GetString("socket")
	if socket == "" {
		socket = ipc.SocketPath()
	}
	if !ipc.IsRunning(socket) {
		return fmt.Errorf("no clipfs daemon listening on %s", socket)
	}

	resp, err := ipc.Request(socket, &message.Message{Type: message.TypeStatus})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return writeStatus(os.Stdout, resp, v.GetString("output"))
}

func writeStatus(w io.Writer, resp *message.Message, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(statusDoc(resp)); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		printStatus(w, resp)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", output)
	}
}

// statusYAML mirrors the JSON field names; message.Message only carries
// yaml tags on its nested types.
type statusYAML struct {
	Mountpoint string               `yaml:"mountpoint"`
	Version    string               `yaml:"version"`
	StartedAt  time.Time            `yaml:"started_at"`
	Modes      []message.ModeStatus `yaml:"modes"`
}

func statusDoc(resp *message.Message) statusYAML {
	return statusYAML{
		Mountpoint: resp.Mountpoint,
		Version:    resp.Version,
		StartedAt:  resp.StartedAt,
		Modes:      resp.Modes,
	}
}

func printStatus(w io.Writer, resp *message.Message) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mountpoint:\t%s\n", resp.Mountpoint)
	fmt.Fprintf(tw, "Version:\t%s\n", resp.Version)
	if !resp.StartedAt.IsZero() {
		fmt.Fprintf(tw, "Started:\t%s (%s)\n", resp.StartedAt.UTC().Format(time.RFC3339), fmtAge(resp.StartedAt))
	}
	_ = tw.Flush()

	for _, ms := range resp.Modes {
		fmt.Fprintln(w)
		if !ms.Mounted {
			fmt.Fprintf(w, "%s %s\n", bold.Sprint(ms.Mode), dim.Sprint("(not mounted)"))
			continue
		}
		fmt.Fprintf(w, "%s  %s  generation %d  %s\n",
			bold.Sprint(ms.Mode), ms.Provider, ms.Generation, dim.Sprint(shortDigest(ms.Digest)))
		if len(ms.Entries) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(tw, "  MIME\tSIZE\tDIGEST\tPATH\n")
		_, _ = fmt.Fprintf(tw, "  ----\t----\t------\t----\n")
		for _, e := range ms.Entries {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", e.MIME, fmtSize(e.Size), shortDigest(e.Digest), e.Path)
		}
		_ = tw.Flush()
		fmt.Fprintf(w, "  updated %s\n", fmtAge(ms.SwappedAt))
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func fmtSize(n int) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	}
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}
