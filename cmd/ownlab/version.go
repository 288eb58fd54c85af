package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ownlab/internal/version"
)

const versionTagline = "every value has exactly one owner"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ownlab build fingerprints",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	f := versionCmd.Flags()
	f.Bool("hash", false, "include git commit hash")
	f.Bool("message", false, "include git commit message")
	f.Bool("date", false, "include build timestamp")
	f.Bool("full", false, "show every recorded bit of build metadata")
	f.String("format", "pretty", "output format (pretty|json)")
}

// versionField is one optional line of `ownlab version`.
type versionField struct {
	flag  string
	label string
	value func(version.Info) string
	clear func(*version.Info)
}

var versionFields = []versionField{
	{"hash", "commit", func(i version.Info) string { return i.Commit }, func(i *version.Info) { i.Commit = "" }},
	{"message", "message", func(i version.Info) string { return i.Message }, func(i *version.Info) { i.Message = "" }},
	{"date", "built", func(i version.Info) string { return i.Date }, func(i *version.Info) { i.Date = "" }},
}

func runVersion(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	format, _ := flags.GetString("format")
	full, _ := flags.GetBool("full")
	info := version.Current()
	out := cmd.OutOrStdout()

	var shown []versionField
	for _, f := range versionFields {
		if on, _ := flags.GetBool(f.flag); on || full {
			shown = append(shown, f)
		} else {
			f.clear(&info)
		}
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Tool    string `json:"tool"`
			Tagline string `json:"tagline"`
			version.Info
		}{"ownlab", versionTagline, info})
	case "pretty":
		fmt.Fprintf(out, "ownlab %s - %s\n", version.Pretty(), versionTagline)
		for _, f := range shown {
			v := f.value(info)
			if v == "" {
				v = "unknown"
			}
			fmt.Fprintf(out, "%-8s %s\n", f.label+":", v)
		}
		if len(shown) == 0 {
			fmt.Fprintln(out, "set --hash, --message, --date, or --full for more build trivia")
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
}
