// Package fixer runs the formatting pass over generated modules.
//
// The pass normalizes whitespace in place and syntax-checks every module
// with esbuild. Anything it cannot fix is reported as a Problem, and the
// run fails with ErrFormatterFailure even though the files stay written.
package fixer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// ErrFormatterFailure marks a run that left unfixable problems behind.
var ErrFormatterFailure = errors.New("formatter failure")

// DefaultPattern selects the files the pass visits, relative to the root.
const DefaultPattern = "**/*.js"

// Problem is one unfixable issue.
type Problem struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", p.File, p.Line, p.Column, p.Message)
}

// Report summarizes one pass.
type Report struct {
	// Files lists every visited file relative to the root, sorted.
	Files []string
	// Fixed lists the files that were rewritten.
	Fixed    []string
	Problems []Problem
}

// OK reports whether the pass left no problems.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Options configure a pass.
type Options struct {
	// Pattern is a doublestar pattern; empty means DefaultPattern.
	Pattern string
	// DryRun reports what would change without writing.
	DryRun bool
}

// Run fixes every module below root once.
func Run(ctx context.Context, root string, logger *zap.Logger) (*Report, error) {
	return RunWithOptions(ctx, root, Options{}, logger)
}

// RunWithOptions is Run with explicit options.
func RunWithOptions(ctx context.Context, root string, opts Options, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Newf("invalid file pattern %q", pattern)
	}

	files, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "list files below %s", root)
	}
	sort.Strings(files)

	report := &Report{Files: files}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "formatting pass interrupted")
		}

		changed, problems, err := fixFile(filepath.Join(root, filepath.FromSlash(rel)), rel, opts.DryRun)
		if err != nil {
			return report, err
		}
		if changed {
			report.Fixed = append(report.Fixed, rel)
			logger.Debug("fixed module", zap.String("file", rel), zap.Bool("dry_run", opts.DryRun))
		}
		report.Problems = append(report.Problems, problems...)
	}

	logger.Info("formatting pass finished",
		zap.Int("files", len(report.Files)),
		zap.Int("fixed", len(report.Fixed)),
		zap.Int("problems", len(report.Problems)))

	if !report.OK() {
		return report, failure(report.Problems)
	}
	return report, nil
}

func failure(problems []Problem) error {
	files := make(map[string]bool)
	lines := make([]string, 0, len(problems))
	for _, p := range problems {
		files[p.File] = true
		lines = append(lines, p.String())
	}
	err := errors.Newf("%d unfixable problem(s) in %d file(s)", len(problems), len(files))
	err = errors.WithDetail(err, strings.Join(lines, "\n"))
	return errors.Mark(err, ErrFormatterFailure)
}

func fixFile(path, rel string, dryRun bool) (bool, []Problem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, nil, errors.Wrapf(err, "stat %s", rel)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return false, nil, errors.Wrapf(err, "read %s", rel)
	}

	fixed := Normalize(src)
	problems := Check(rel, fixed)

	changed := !bytes.Equal(src, fixed)
	if changed && !dryRun {
		if err := os.WriteFile(path, fixed, info.Mode()&fs.ModePerm); err != nil {
			return false, nil, errors.Wrapf(err, "write %s", rel)
		}
	}
	return changed, problems, nil
}

// Normalize returns src with LF line endings, leading tabs expanded to two
// spaces, trailing whitespace removed and exactly one final newline.
// Empty input stays empty.
func Normalize(src []byte) []byte {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		lead := len(line) - len(strings.TrimLeft(line, "\t"))
		if lead > 0 {
			line = strings.Repeat("  ", lead) + line[lead:]
		}
		lines[i] = line
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// Check parses src as JavaScript and returns its syntax errors.
func Check(file string, src []byte) []Problem {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:     api.LoaderJS,
		Sourcefile: file,
		Target:     api.ES2020,
		LogLevel:   api.LogLevelSilent,
	})

	problems := make([]Problem, 0, len(result.Errors))
	for _, msg := range result.Errors {
		p := Problem{File: file, Message: msg.Text}
		if msg.Location != nil {
			p.Line = msg.Location.Line
			p.Column = msg.Location.Column
		}
		problems = append(problems, p)
	}
	return problems
}
