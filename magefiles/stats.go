//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// pkgLines is the line count of one package directory.
type pkgLines struct {
	prod, test int
}

// Stats prints Go lines per package, split into production and test code,
// followed by the word count of the top-level Markdown documents.
func Stats() error {
	counts := map[string]*pkgLines{}
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && skipStatsDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		dir := filepath.Dir(path)
		c := counts[dir]
		if c == nil {
			c = &pkgLines{}
			counts[dir] = c
		}
		n := bytes.Count(data, []byte("\n"))
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(counts))
	for d := range counts {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var total pkgLines
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PACKAGE\tPROD\tTEST\t")
	for _, d := range dirs {
		c := counts[d]
		total.prod += c.prod
		total.test += c.test
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", d, humanize.Comma(int64(c.prod)), humanize.Comma(int64(c.test)))
	}
	fmt.Fprintf(tw, "total\t%s\t%s\t\n", humanize.Comma(int64(total.prod)), humanize.Comma(int64(total.test)))
	if err := tw.Flush(); err != nil {
		return err
	}

	docs, err := filepath.Glob("*.md")
	if err != nil {
		return err
	}
	words := 0
	for _, doc := range docs {
		data, err := os.ReadFile(doc)
		if err != nil {
			return err
		}
		words += len(strings.Fields(string(data)))
	}
	fmt.Printf("docs: %s words in %d files\n", humanize.Comma(int64(words)), len(docs))
	return nil
}

// skipStatsDir reports whether a directory holds no project code: build
// output, VCS metadata, vendored code, build tooling or reference material.
func skipStatsDir(path string) bool {
	base := filepath.Base(path)
	return path == binaryDir || path == "magefiles" || path == "vendor" ||
		strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_")
}
