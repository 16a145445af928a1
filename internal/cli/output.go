package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// shortIDLen is the id prefix shown in tables; Find accepts it back.
const shortIDLen = 8

var (
	idColor     = color.New(color.FgYellow)
	remoteColor = color.New(color.FgCyan)
	tagColor    = color.New(color.FgMagenta)
	warnColor   = color.New(color.FgRed)
	faintColor  = color.New(color.Faint)
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// lastUsed renders a timestamp relative to now; zero means unknown.
func lastUsed(sec int64) string {
	if sec == 0 {
		return "never"
	}
	return humanize.Time(time.Unix(sec, 0))
}

func renderTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return tagColor.Sprint(strings.Join(tags, ","))
}

// printRecords writes one row per record.
func printRecords(w io.Writer, records []types.WorkspaceRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTAGS\tLAST USED\tPATH")
	for _, rec := range records {
		path := rec.Path
		if rec.Info.IsRemote() {
			path = remoteColor.Sprint(path)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			idColor.Sprint(shortID(rec.ID)),
			rec.Label(),
			renderTags(rec.Info.Tags),
			lastUsed(rec.LastUsed),
			path)
	}
	return tw.Flush()
}

// printPaths writes the path of each record on its own line.
func printPaths(w io.Writer, records []types.WorkspaceRecord) error {
	for _, rec := range records {
		if _, err := fmt.Fprintln(w, rec.Path); err != nil {
			return err
		}
	}
	return nil
}

// printRecord writes the full details of one record.
func printRecord(w io.Writer, rec types.WorkspaceRecord, exists bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", name, value)
		}
	}
	field("ID", idColor.Sprint(rec.ID))
	field("Label", rec.Label())
	field("Name", rec.DisplayName)
	field("Path", rec.Path)
	if rec.OriginalPath != rec.Path {
		field("Original", rec.OriginalPath)
	}
	field("Type", string(rec.Info.Type))
	field("Tags", renderTags(rec.Info.Tags))
	printInfoRemote(field, rec.Info)
	field("Last used", lastUsed(rec.LastUsed))
	field("Exists", strconv.FormatBool(exists))
	for i, s := range rec.Sources {
		name := ""
		if i == 0 {
			name = "Sources"
		}
		fmt.Fprintf(tw, "%s\t%s %s\n", pad(name), s, faintColor.Sprint(s.NativeID))
	}
	for _, warn := range rec.Info.Warnings {
		fmt.Fprintf(tw, "Warning:\t%s\n", warnColor.Sprint(warn))
	}
	return tw.Flush()
}

// printInfo writes a classified path.
func printInfo(w io.Writer, info types.WorkspacePathInfo, key, id string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", name, value)
		}
	}
	field("Original", info.OriginalPath)
	field("Canonical", info.Canonical)
	field("Path", info.Path)
	field("Type", string(info.Type))
	field("Tags", renderTags(info.Tags))
	field("Label", info.Label)
	printInfoRemote(field, info)
	field("Key", key)
	field("ID", idColor.Sprint(id))
	for _, warn := range info.Warnings {
		fmt.Fprintf(tw, "Warning:\t%s\n", warnColor.Sprint(warn))
	}
	return tw.Flush()
}

func printInfoRemote(field func(name, value string), info types.WorkspacePathInfo) {
	if !info.IsRemote() {
		return
	}
	field("Scheme", info.Scheme)
	field("Authority", info.Authority)
	if info.Host != "" {
		field("Host", remoteColor.Sprint(info.Host))
	}
	field("User", info.User)
	if info.Port != 0 {
		field("Port", strconv.Itoa(info.Port))
	}
	field("Container path", info.ContainerPath)
}

func pad(name string) string {
	if name == "" {
		return ""
	}
	return name + ":"
}

// printFailures reports unreadable sources on w.
func printFailures(w io.Writer, failures []*types.SourceError) {
	for _, f := range failures {
		fmt.Fprintf(w, "%s %s\n", warnColor.Sprint("unreadable:"), f)
	}
}
