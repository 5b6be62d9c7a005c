// Package pipeline orchestrates a remediation run: scan the source
// tree, fan the candidate files out to a bounded worker pool, apply
// the rewrite rules (or the conflict resolver), and fold every
// worker's partial ledger through a single reducer into the final
// report.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/remedy/internal/classify"
	"github.com/standardbeagle/remedy/internal/config"
	"github.com/standardbeagle/remedy/internal/conflict"
	"github.com/standardbeagle/remedy/internal/debug"
	"github.com/standardbeagle/remedy/internal/errors"
	"github.com/standardbeagle/remedy/internal/knowledge"
	"github.com/standardbeagle/remedy/internal/ledger"
	"github.com/standardbeagle/remedy/internal/lexical"
	"github.com/standardbeagle/remedy/internal/rewrite"
	"github.com/standardbeagle/remedy/internal/safety"
	"github.com/standardbeagle/remedy/internal/types"
	"github.com/standardbeagle/remedy/pkg/pathutil"
)

// Pipeline wires the components together for one configured project.
type Pipeline struct {
	cfg      *config.Config
	table    *knowledge.Table
	analyzer *safety.Analyzer
	rules    []rewrite.Rule
}

// New builds a pipeline from configuration, loading the knowledge
// table overrides when configured.
func New(cfg *config.Config) (*Pipeline, error) {
	table := knowledge.Defaults()
	if cfg.Knowledge != "" {
		path := cfg.Knowledge
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Project.Root, path)
		}
		loaded, err := knowledge.Load(path)
		if err != nil {
			return nil, err
		}
		table = loaded
	}

	var rules []rewrite.Rule
	for _, r := range rewrite.Builtin(table) {
		if cfg.CategoryAllowed(r.Category) {
			rules = append(rules, r)
		}
	}

	return &Pipeline{
		cfg:      cfg,
		table:    table,
		analyzer: safety.New(table),
		rules:    rules,
	}, nil
}

// Analyzer exposes the safety analyzer for the standalone commands.
func (p *Pipeline) Analyzer() *safety.Analyzer { return p.analyzer }

// fileResult is one worker's output for one file, reduced into the
// run ledger by the single reducer goroutine.
type fileResult struct {
	path       string
	ledger     *ledger.Ledger
	changed    bool
	skipped    bool
	conflicts  int
	resolved   int
	unresolved int
}

// Fix runs the rewrite pass over the source tree. diags carries the
// classified diagnostics from the compiler report (may be empty, in
// which case only the diagnostic-independent rules run).
func (p *Pipeline) Fix(ctx context.Context, diags []types.CategorizedDiagnostic) (*ledger.Report, error) {
	return p.run(ctx, diags, (*Pipeline).fixFile)
}

// Resolve runs the conflict-resolution pass over the source tree.
func (p *Pipeline) Resolve(ctx context.Context) (*ledger.Report, error) {
	return p.run(ctx, nil, (*Pipeline).resolveFile)
}

type fileFunc func(p *Pipeline, engine *rewrite.Engine, path string, diags []types.CategorizedDiagnostic) *fileResult

func (p *Pipeline) run(ctx context.Context, diags []types.CategorizedDiagnostic, process fileFunc) (*ledger.Report, error) {
	stats := types.RunStats{
		Started:         time.Now(),
		DryRun:          p.cfg.Remediate.DryRun,
		DiagnosticCount: len(diags),
	}

	files, err := scanFiles(p.cfg.Project.Root, p.cfg.Include, p.cfg.Exclude, p.cfg.Remediate.MaxFiles)
	if err != nil {
		return nil, err
	}
	debug.LogPipeline("scanned %d candidate files under %s", len(files), p.cfg.Project.Root)

	byFile := groupDiagnostics(p.cfg.Project.Root, diags)
	led := ledger.New()

	workers := p.cfg.WorkerCount()
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	paths := make(chan string)
	results := make(chan *fileResult)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(paths)
		for _, f := range files {
			select {
			case paths <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workerWG sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerWG.Add(1)
		g.Go(func() error {
			defer workerWG.Done()
			// Tree-sitter parsers are not shareable; each worker gets
			// its own engine.
			engine := rewrite.New(lexical.NewScanner(), p.cfg.Remediate.DryRun)
			for path := range paths {
				res := process(p, engine, path, byFile[path])
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workerWG.Wait()
		close(results)
	}()

	for res := range results {
		stats.FilesScanned++
		if res.changed {
			stats.FilesChanged++
		}
		if res.skipped {
			stats.FilesSkipped++
		}
		stats.ConflictsFound += res.conflicts
		stats.Resolved += res.resolved
		stats.Unresolved += res.unresolved
		led.Merge(res.ledger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	for kind, n := range led.Failures() {
		switch kind {
		case types.FailureParseSkip:
			stats.ParseSkips = n
		case types.FailureRule:
			stats.RuleFailures = n
		case types.FailureWrite:
			stats.WriteFailures = n
		}
	}
	stats.Finished = time.Now()
	return led.BuildReport(stats), nil
}

// fixFile applies the rewrite rules and the diagnostic-driven
// reference filler to one file.
func (p *Pipeline) fixFile(engine *rewrite.Engine, path string, diags []types.CategorizedDiagnostic) *fileResult {
	res := &fileResult{path: path, ledger: ledger.New()}

	abs := filepath.Join(p.cfg.Project.Root, filepath.FromSlash(path))
	content, err := os.ReadFile(abs)
	if err != nil || looksBinary(content) {
		res.skipped = true
		res.ledger.Fail(types.FailureParseSkip)
		return res
	}
	text := string(content)

	out, records, ruleErrs := engine.Apply(path, text, p.rules)
	for _, e := range ruleErrs {
		debug.LogRewrite("%v", e)
		res.ledger.Fail(types.FailureRule)
	}
	for _, rec := range records {
		res.ledger.Append(rec)
	}

	if len(diags) > 0 && p.cfg.CategoryAllowed(classify.CategoryMissingImports) {
		filled, fillRecords, reviews := engine.FillMissingReferences(path, out, diags, p.analyzer)
		out = filled
		for _, rec := range fillRecords {
			res.ledger.Append(rec)
		}
		for _, item := range reviews {
			res.ledger.AppendReview(item)
		}
	}

	res.changed = p.commit(res, abs, text, out)
	return res
}

// resolveFile runs the conflict resolver on one file. The engine is
// unused; resolution shares the worker plumbing with the fix pass.
func (p *Pipeline) resolveFile(_ *rewrite.Engine, path string, _ []types.CategorizedDiagnostic) *fileResult {
	res := &fileResult{path: path, ledger: ledger.New()}

	abs := filepath.Join(p.cfg.Project.Root, filepath.FromSlash(path))
	content, err := os.ReadFile(abs)
	if err != nil || looksBinary(content) {
		res.skipped = true
		res.ledger.Fail(types.FailureParseSkip)
		return res
	}
	text := string(content)
	if !conflict.HasMarkers(text) {
		res.skipped = true
		return res
	}

	resolver := conflict.New(p.analyzer)
	outcome, parseErrs := resolver.ResolveFile(path, text)
	for range parseErrs {
		res.ledger.Fail(types.FailureConflictParse)
	}
	res.conflicts = len(outcome.Resolutions) + outcome.Malformed
	res.resolved = outcome.Resolved()
	res.unresolved = outcome.Unresolved()
	for _, item := range outcome.Reviews {
		res.ledger.AppendReview(item)
	}
	if outcome.Changed {
		res.ledger.Append(types.ChangeRecord{
			File:        path,
			RuleID:      "resolve-conflict",
			Category:    "merge-conflict",
			Occurrences: outcome.Resolved(),
			ContentHash: xxhash.Sum64String(outcome.Text),
			Timestamp:   time.Now(),
		})
	}

	res.changed = p.commit(res, abs, text, outcome.Text)
	return res
}

// commit writes the new content atomically when it differs from the
// old, honoring dry-run mode. Reports whether the file changed on
// disk.
func (p *Pipeline) commit(res *fileResult, abs, oldText, newText string) bool {
	if xxhash.Sum64String(newText) == xxhash.Sum64String(oldText) {
		return false
	}
	if p.cfg.Remediate.DryRun {
		return false
	}
	if err := atomicWrite(abs, []byte(newText)); err != nil {
		debug.LogPipeline("%v", err)
		res.ledger.Fail(types.FailureWrite)
		return false
	}
	return true
}

// atomicWrite replaces path's content via a temp file and rename so a
// crash never leaves partial content behind.
func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".remedy-*")
	if err != nil {
		return errors.NewWriteError(path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewWriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewWriteError(path, err)
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmpName, info.Mode())
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewWriteError(path, err)
	}
	return nil
}

// groupDiagnostics indexes classified diagnostics by their normalized
// root-relative path so workers can look up the ones for their file.
// Reports may spell paths absolutely or with platform separators.
func groupDiagnostics(root string, diags []types.CategorizedDiagnostic) map[string][]types.CategorizedDiagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := make(map[string][]types.CategorizedDiagnostic)
	for _, d := range pathutil.NormalizeDiagnostics(diags, root) {
		out[d.File] = append(out[d.File], d)
	}
	return out
}
