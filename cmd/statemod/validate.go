package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/couchcryptid/statemod-etl/internal/statemod"
	"github.com/couchcryptid/statemod-etl/internal/ts"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <file|dir>...",
		Short: "Check StateMod files before publishing them",
		Long: `Validate reads each StateMod file (directories are searched for known
StateMod extensions) and reports, per file:

  header    the header line parses and its period runs forward
  read      every data line parses into monthly series
  warnings  the reader logged nothing suspicious (unknown stations, a
            first data year that disagrees with the header)
  values    no series is entirely missing

Warnings fail validation only with --strict.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no StateMod files found in %s", strings.Join(args, ", "))
			}

			failed := 0
			for _, f := range files {
				if !report(cmd.OutOrStdout(), f, validateFile(f, strict)) {
					failed++
				}
			}

			fmt.Fprintln(cmd.OutOrStdout())
			if failed > 0 {
				return fmt.Errorf("validation failed for %d of %d files", failed, len(files))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All %d files passed.\n", len(files))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat reader warnings as failures")
	return cmd
}

// collectFiles expands directories into the StateMod files they contain.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && statemod.DataTypeForFile(e.Name()) != "" {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func validateFile(path string, strict bool) []*phase {
	header := &phase{name: "header"}
	read := &phase{name: "read"}
	warnings := &phase{name: "warnings"}
	values := &phase{name: "values"}
	phases := []*phase{header, read, warnings, values}

	data, err := os.ReadFile(path)
	if err != nil {
		read.errorf("%v", err)
		return phases
	}
	lines := statemod.SplitLines(string(data))

	if n, line, ok := statemod.FindHeader(lines); !ok {
		header.errorf("no header line")
	} else if hdr, err := statemod.ParseHeader(line); err != nil {
		header.errorf("line %d: %v", n, err)
	} else if !hdr.Average() && hdr.End().Before(hdr.Start()) {
		header.errorf("line %d: period %s runs backwards", n, hdr.Period())
	}

	collector := &warnCollector{}
	reader := statemod.NewReader(slog.New(collector))
	series, err := reader.ReadTimeSeriesList(lines, statemod.ReadOptions{InputName: filepath.Base(path)})
	if err != nil {
		read.errorf("%v", err)
	}

	if strict {
		for _, w := range collector.messages() {
			warnings.errorf("%s", w)
		}
	}

	for _, s := range series {
		if ts.ComputeLimits(s).Count == 0 {
			values.errorf("%s: every value is missing", s.Ident().Location())
		}
	}
	return phases
}

func report(w io.Writer, path string, phases []*phase) bool {
	fmt.Fprintf(w, "\n=== %s ===\n", path)
	ok := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			ok = false
		}
		fmt.Fprintf(w, "  %-12s %s\n", p.name, status)
	}
	for _, p := range phases {
		for i, e := range p.errors {
			fmt.Fprintf(w, "    %s [%d] %s\n", p.name, i+1, e)
		}
	}
	return ok
}

// warnCollector is a slog handler that keeps the text of every warning.
type warnCollector struct {
	mu   sync.Mutex
	msgs []string
}

func (c *warnCollector) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (c *warnCollector) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	c.mu.Lock()
	c.msgs = append(c.msgs, b.String())
	c.mu.Unlock()
	return nil
}

// WithAttrs drops logger context; the file being validated is already known.
func (c *warnCollector) WithAttrs([]slog.Attr) slog.Handler { return c }

func (c *warnCollector) WithGroup(string) slog.Handler { return c }

func (c *warnCollector) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}
