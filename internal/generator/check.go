package generator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/fixer"
)

// ErrStale is returned by callers that treat a stale output tree as failure.
var ErrStale = errors.New("generated configs are stale")

// CheckResult lists output files that differ from a fresh render.
type CheckResult struct {
	Checked int
	Stale   []string
	Missing []string
}

// UpToDate reports whether every module matched.
func (r *CheckResult) UpToDate() bool {
	return len(r.Stale) == 0 && len(r.Missing) == 0
}

// Err returns ErrStale with the offending paths, or nil.
func (r *CheckResult) Err() error {
	if r.UpToDate() {
		return nil
	}
	err := errors.Newf("%d stale and %d missing module(s)", len(r.Stale), len(r.Missing))
	for _, p := range r.Stale {
		err = errors.WithDetailf(err, "stale: %s", p)
	}
	for _, p := range r.Missing {
		err = errors.WithDetailf(err, "missing: %s", p)
	}
	err = errors.WithHint(err, "run confgen generate")
	return errors.Mark(err, ErrStale)
}

// Check renders every module in memory and compares it with the output tree.
// Nothing is written.
func (g *Generator) Check(ctx context.Context) (*CheckResult, error) {
	modules, err := g.Render(ctx)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{}
	for _, mod := range modules {
		res.Checked++
		path := filepath.Join(g.cfg.OutDir, filepath.FromSlash(mod.Path))
		existing, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			res.Missing = append(res.Missing, path)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}

		want := []byte(mod.Content)
		if !g.cfg.SkipFormat {
			want = fixer.Normalize(want)
		}
		if !bytes.Equal(existing, want) {
			res.Stale = append(res.Stale, path)
		}
	}
	return res, nil
}
