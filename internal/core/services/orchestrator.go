package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.BuildOrchestrator = (*Orchestrator)(nil)

// Progress checkpoints, in percent.
const (
	progressValidate = 5
	progressScan     = 10
	progressSetup    = 15
	progressSources  = 20
	progressSpan     = 60
	progressFinalize = 85
	progressDone     = 100
)

// Orchestrator runs multi-source builds. Sources are independently
// unreliable: one failing source yields a "_partial" corpus, all failing
// persists nothing.
type Orchestrator struct {
	manager  *Manager
	adapters map[domain.SourceKind]driven.SourceAdapter
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator over the given source adapters.
// A later adapter of the same kind replaces an earlier one.
func NewOrchestrator(manager *Manager, adapters ...driven.SourceAdapter) *Orchestrator {
	o := &Orchestrator{
		manager:  manager,
		adapters: make(map[domain.SourceKind]driven.SourceAdapter, len(adapters)),
		now:      time.Now,
	}
	for _, a := range adapters {
		o.adapters[a.Kind()] = a
	}
	return o
}

// Preview scans every selected source without side effects.
func (o *Orchestrator) Preview(ctx context.Context, sel domain.SourceSelection) []domain.ScanResult {
	kinds := sel.Selected()
	results := make([]domain.ScanResult, 0, len(kinds))
	for _, kind := range kinds {
		adapter, ok := o.adapters[kind]
		if !ok {
			results = append(results, domain.ScanResult{
				Kind: kind,
				Err:  fmt.Errorf("%w: no adapter for %s", domain.ErrSourceUnavailable, kind),
			})
			continue
		}
		results = append(results, adapter.Scan(ctx, sel))
	}
	return results
}

// buildRun carries the state of one Run call.
type buildRun struct {
	req      domain.BuildRequest
	op       domain.Operation
	target   string
	result   domain.BuildResult
	progress domain.ProgressFunc
	started  time.Time
	now      func() time.Time
}

func (r *buildRun) report(message string, percent float64) {
	logger.Debug("[%s] %3.0f%% %s", r.result.RunID, percent, message)
	if r.progress != nil {
		r.progress(message, percent)
	}
}

func (r *buildRun) fail(err error) domain.BuildResult {
	r.result.Success = false
	r.result.Err = err
	r.result.Errors = append(r.result.Errors, err.Error())
	r.result.Duration = r.now().Sub(r.started)
	logger.Error("Build %s failed: %v", r.result.RunID, err)
	return r.result
}

// Run executes a build: validate, scan, set up the target corpus, ingest
// every source in fixed order and persist according to the outcome.
func (o *Orchestrator) Run(ctx context.Context, req domain.BuildRequest, progress domain.ProgressFunc) domain.BuildResult {
	run := &buildRun{
		req:      req,
		op:       req.Operation,
		progress: progress,
		started:  o.now(),
		now:      o.now,
	}
	if run.op == "" {
		run.op = domain.OperationCreate
	}
	run.result = domain.BuildResult{RunID: uuid.New().String(), Name: req.Name}

	logger.Section("Build " + req.Name)
	logger.WithFields(map[string]any{
		"run_id":    run.result.RunID,
		"operation": run.op,
		"sources":   req.Sources.Selected(),
	}).Info("build started")

	// 1. Validate
	run.report("Validating request", progressValidate)
	if err := o.validate(run); err != nil {
		return run.fail(err)
	}

	unlock, err := o.manager.Locks().TryLock(o.lockNames(run)...)
	if err != nil {
		return run.fail(err)
	}
	defer unlock()

	// 2. Scan
	run.report("Scanning sources", progressScan)
	run.result.Scans = o.Preview(ctx, req.Sources)
	total := 0
	for _, scan := range run.result.Scans {
		if scan.Err != nil || !scan.Success {
			msg := fmt.Sprintf("scan %s: %v", scan.Kind, scan.Err)
			logger.Warn("%s", msg)
			run.result.Errors = append(run.result.Errors, msg)
			continue
		}
		total += scan.Total
	}
	if err := ctx.Err(); err != nil {
		return run.fail(err)
	}

	// 3. Abort before creating anything
	if total == 0 {
		return run.fail(domain.ErrNoDocuments)
	}
	logger.Info("Found %d candidate documents", total)

	// 4. Setup
	run.report("Preparing corpus", progressSetup)
	corpus, err := o.setup(ctx, run)
	if err != nil {
		return run.fail(err)
	}

	// 5. Process
	kinds := req.Sources.Selected()
	var failures []error
	for i, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return run.fail(err)
		}
		run.report(fmt.Sprintf("Processing %s", kind.Description()),
			progressSources+float64(i)*progressSpan/float64(len(kinds)))

		ingest := o.ingest(ctx, kind, corpus, req.Sources)
		run.result.Ingests = append(run.result.Ingests, ingest)

		if ingest.Success {
			run.result.SourcesProcessed = append(run.result.SourcesProcessed, kind)
			logger.Info("Source %s: %d added, %d failed, %d chunks",
				kind, ingest.Added, ingest.Failed, ingest.ChunksCreated)
			continue
		}
		run.result.SourcesFailed = append(run.result.SourcesFailed, kind)
		failure := fmt.Errorf("source %s: %w", kind, ingest.Err)
		failures = append(failures, failure)
		run.result.Errors = append(run.result.Errors, failure.Error())
		logger.Warn("%v", failure)
	}
	if err := ctx.Err(); err != nil {
		return run.fail(err)
	}

	// 6. Finalize
	run.report("Finalizing", progressFinalize)
	if len(run.result.SourcesProcessed) == 0 {
		return run.fail(fmt.Errorf("all sources failed: %w", errors.Join(failures...)))
	}

	final := corpus
	if len(run.result.SourcesFailed) > 0 {
		partial, err := o.manager.New(run.target + domain.PartialSuffix)
		if err != nil {
			return run.fail(err)
		}
		if err := corpus.CopyInto(partial); err != nil {
			return run.fail(err)
		}
		final = partial
		run.result.IsPartial = true
	}

	if err := final.Save(ctx); err != nil {
		return run.fail(err)
	}

	stats := final.Statistics()
	run.result.Success = true
	run.result.Name = final.Name()
	run.result.Path = final.Dir()
	run.result.TotalDocuments = stats.TotalDocuments
	run.result.TotalChunks = stats.Index.TotalChunks
	run.result.Duration = o.now().Sub(run.started)

	run.report("Done", progressDone)
	logger.Info("Build %s saved %s: %d documents, %d chunks in %s",
		run.result.RunID, final.Name(), stats.TotalDocuments, stats.Index.TotalChunks, run.result.Duration)
	return run.result
}

func (o *Orchestrator) validate(run *buildRun) error {
	req := run.req
	if !run.op.IsValid() {
		return fmt.Errorf("%w: unknown operation %q", domain.ErrConfigInvalid, run.op)
	}
	if err := ValidateName(req.Name); err != nil {
		return err
	}
	if !req.Sources.Any() {
		return domain.ErrNoSourcesSelected
	}

	run.target = req.Name
	if run.op.NeedsExisting() {
		if req.ExistingName == "" {
			return fmt.Errorf("%w: %s requires an existing corpus name", domain.ErrCorpusNotFound, run.op)
		}
		if err := ValidateName(req.ExistingName); err != nil {
			return err
		}
		if !o.manager.Exists(req.ExistingName) {
			return fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, req.ExistingName)
		}
		if run.op == domain.OperationAppend && req.ExistingName != req.Name {
			run.target = req.ExistingName + "_" + req.Name
			if err := ValidateName(run.target); err != nil {
				return err
			}
		}
	}

	sameAsExisting := run.op.NeedsExisting() && run.target == req.ExistingName
	if !sameAsExisting && o.manager.Exists(run.target) {
		return fmt.Errorf("%w: %s", domain.ErrCorpusExists, run.target)
	}
	return nil
}

func (o *Orchestrator) lockNames(run *buildRun) []string {
	names := []string{run.target, run.target + domain.PartialSuffix}
	if run.req.ExistingName != "" {
		names = append(names, run.req.ExistingName)
	}
	return names
}

// setup prepares the in-memory corpus that sources ingest into.
// Nothing is written to disk here.
func (o *Orchestrator) setup(ctx context.Context, run *buildRun) (*Corpus, error) {
	req := run.req
	switch run.op {
	case domain.OperationReplace:
		desc, err := o.manager.Describe(ctx, req.ExistingName)
		if err != nil {
			return nil, err
		}
		c, err := o.manager.New(run.target)
		if err != nil {
			return nil, err
		}
		c.descriptor.CreatedAt = desc.CreatedAt
		logger.Info("Replacing %s with a fresh corpus %s", req.ExistingName, run.target)
		return c, nil

	case domain.OperationAppend:
		existing, err := o.manager.Open(ctx, req.ExistingName)
		if err != nil {
			return nil, err
		}
		if run.target == req.ExistingName {
			logger.Info("Appending to %s", req.ExistingName)
			return existing, nil
		}
		fresh, err := o.manager.New(run.target)
		if err != nil {
			return nil, err
		}
		if err := existing.CopyInto(fresh); err != nil {
			return nil, err
		}
		logger.Info("Appending to a copy of %s named %s", req.ExistingName, run.target)
		return fresh, nil

	default:
		return o.manager.New(run.target)
	}
}

func (o *Orchestrator) ingest(
	ctx context.Context, kind domain.SourceKind, corpus *Corpus, sel domain.SourceSelection,
) domain.IngestResult {
	adapter, ok := o.adapters[kind]
	if !ok {
		return domain.IngestResult{
			Kind: kind,
			Err:  fmt.Errorf("%w: no adapter for %s", domain.ErrSourceUnavailable, kind),
		}
	}
	return adapter.Ingest(ctx, corpus, sel)
}
