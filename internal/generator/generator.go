// Package generator runs a full regeneration: load the catalog, compile every
// tier in both shapes, write the modules and run the formatting pass once.
package generator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/leapstack-labs/confgen/internal/catalog"
	"github.com/leapstack-labs/confgen/internal/fixer"
	"github.com/leapstack-labs/confgen/pkg/compile"
	"github.com/leapstack-labs/confgen/pkg/lint"
	"github.com/leapstack-labs/confgen/pkg/tier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrWriteFailure marks a module that could not be written.
var ErrWriteFailure = errors.New("write failure")

// Config drives a Generator.
type Config struct {
	// CatalogPath is the rule catalog (.yaml, .toml or .star).
	CatalogPath string
	// OutDir is the output root; flat modules go below Compile.FlatDir.
	OutDir string
	// Tiers defaults to tier.Default().
	Tiers   *tier.Table
	Compile compile.Options
	// Concurrency bounds parallel compilation; 0 means GOMAXPROCS.
	Concurrency int
	// SkipFormat disables the formatting pass.
	SkipFormat bool
}

// Generator regenerates the configuration modules.
type Generator struct {
	cfg    Config
	logger *zap.Logger
	loader *catalog.Loader
}

// Result describes one regeneration run.
type Result struct {
	RunID    string
	Modules  []compile.Module
	Written  []string
	Fix      *fixer.Report
	Duration time.Duration
}

// New validates cfg and returns a Generator.
func New(cfg Config, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CatalogPath == "" {
		return nil, errors.WithHint(errors.New("no catalog configured"), "set catalog in confgen.yaml or pass --catalog")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("no output directory configured")
	}
	if cfg.Concurrency < 0 {
		return nil, errors.Newf("concurrency must not be negative, got %d", cfg.Concurrency)
	}
	if cfg.Tiers == nil {
		cfg.Tiers = tier.Default()
	}
	if err := cfg.Compile.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{cfg: cfg, logger: logger}
	g.loader = &catalog.Loader{
		Tiers: cfg.Tiers,
		Print: func(thread, msg string) {
			logger.Info(msg, zap.String("script", thread))
		},
	}
	return g, nil
}

func (g *Generator) concurrency() int {
	if g.cfg.Concurrency > 0 {
		return g.cfg.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Render loads the catalog and compiles every tier in every shape without
// touching the output tree. Modules are ordered by tier, then shape.
func (g *Generator) Render(ctx context.Context) ([]compile.Module, error) {
	reg, err := g.loader.Load(ctx, g.cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	cats, err := lint.Categorize(reg, g.cfg.Tiers)
	if err != nil {
		return nil, err
	}

	shapes := compile.Shapes()
	modules := make([]compile.Module, len(cats)*len(shapes))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency())
	for i, cat := range cats {
		for j, shape := range shapes {
			slot := i*len(shapes) + j
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				mod, err := compile.Compile(cat, g.cfg.Tiers, shape, g.cfg.Compile)
				if err != nil {
					return errors.WithDetailf(errors.Wrapf(err, "compile %s", cat.ID), "tier=%s shape=%s", cat.ID, shape)
				}
				modules[slot] = mod
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Debug("rendered modules",
		zap.Int("rules", reg.Count()),
		zap.Int("tiers", len(cats)),
		zap.Int("modules", len(modules)))
	return modules, nil
}

// Run performs a full regeneration. Nothing is written unless every module
// compiled. The formatting pass runs once, after all writes.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	logger := g.logger.With(zap.String("run_id", res.RunID))

	modules, err := g.Render(ctx)
	if err != nil {
		return res, err
	}
	res.Modules = modules

	if err := ctx.Err(); err != nil {
		return res, errors.Wrap(err, "regeneration cancelled before writing")
	}

	for _, mod := range modules {
		path, err := g.write(mod)
		if err != nil {
			return res, err
		}
		res.Written = append(res.Written, path)
		logger.Debug("wrote module", zap.String("path", path), zap.String("tier", mod.TierID), zap.Stringer("shape", mod.Shape))
	}

	if !g.cfg.SkipFormat {
		report, err := fixer.Run(ctx, g.cfg.OutDir, logger)
		res.Fix = report
		if err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
	}

	res.Duration = time.Since(start)
	logger.Info("regenerated configs",
		zap.Int("files", len(res.Written)),
		zap.String("out_dir", g.cfg.OutDir),
		zap.Duration("took", res.Duration))
	return res, nil
}

func (g *Generator) write(mod compile.Module) (string, error) {
	path := filepath.Join(g.cfg.OutDir, filepath.FromSlash(mod.Path))
	fail := func(err error) error {
		err = errors.Wrapf(err, "write %s", path)
		err = errors.WithDetailf(err, "tier=%s shape=%s", mod.TierID, mod.Shape)
		return errors.Mark(err, ErrWriteFailure)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fail(err)
	}
	if err := os.WriteFile(path, []byte(mod.Content), 0o644); err != nil {
		return "", fail(err)
	}
	return path, nil
}
