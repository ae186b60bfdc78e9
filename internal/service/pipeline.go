package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/storage"
)

// RunJournal records the lifecycle of each run.
type RunJournal interface {
	Start(ctx context.Context, run *domain.ExportRun) error
	Finish(ctx context.Context, run *domain.ExportRun) error
}

// Ingester imports a staged location into the search service.
type Ingester interface {
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
}

// NewRunID returns YYYYMMDD_HHMMSS_<32 hex> for the UTC time t.
func NewRunID(t time.Time) string {
	return t.UTC().Format("20060102_150405") + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WorkingDir returns <staging prefix>/runs/<run id>.
func WorkingDir(stagingPrefix, runID string) string {
	return storage.Join(strings.Trim(stagingPrefix, "/"), "runs", runID)
}

// RunResult summarises a finished run.
type RunResult struct {
	RunID         string
	WorkingDir    string
	DataPath      string // empty when there was nothing to export
	FilesExported int
	State         domain.ExportState
	DataStore     *domain.DataStore
}

// Pipeline runs one export followed by one import.
type Pipeline struct {
	cfg     *config.Config
	state   *StateTracker
	export  *ExportService
	ingest  Ingester
	journal RunJournal // optional
	logger  *logger.Logger
	now     func() time.Time
}

// NewPipeline creates a new Pipeline.
// Parameters:
//   - cfg: validated configuration.
//   - state: tracker for cfg.StateLocation.
//   - export: export service.
//   - ingest: search ingest client.
//   - journal: run journal, or nil.
//   - log: base logger.
// Returns:
//   - *Pipeline: pipeline ready to Run.
func NewPipeline(cfg *config.Config, state *StateTracker, export *ExportService, ingest Ingester, journal RunJournal, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		state:   state,
		export:  export,
		ingest:  ingest,
		journal: journal,
		logger:  orDiscard(log),
		now:     time.Now,
	}
}

// Run executes the pipeline once.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *RunResult: run summary; DataPath is empty when nothing was exported.
//   - error: any fatal failure. The incremental method fails before any I/O.
func (p *Pipeline) Run(ctx context.Context) (result *RunResult, err error) {
	if err := CheckExportMethod(p.cfg.ExportMethod); err != nil {
		return nil, err
	}

	runID := NewRunID(p.now())
	workDir := WorkingDir(p.cfg.StagingPrefix, runID)
	ctx = logger.SetRunID(ctx, p.logger, runID)
	ctx = logger.WithFields(ctx, p.logger, logger.Fields{logger.FieldConnectorID: p.cfg.ConnectorID})
	log := logger.Or(ctx, p.logger).WithComponent("pipeline")
	log.WithField("working_dir", workDir).Infof("Run ID: %s", runID)

	result = &RunResult{RunID: runID, WorkingDir: workDir}
	run := p.startRun(ctx, runID)
	defer func() { p.finishRun(ctx, run, result, err) }()

	prior, err := p.state.Load(ctx)
	if err != nil {
		return result, err
	}

	descriptor, err := p.cfg.Source.Descriptor()
	if err != nil {
		return result, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	exported, err := p.export.FullExport(ctx, ExportRequest{
		RunDir:       workDir,
		Source:       descriptor,
		WithMetadata: p.cfg.Source.WithMetadata,
		PriorState:   prior,
	})
	if err != nil {
		return result, err
	}
	if exported == nil {
		result.State = prior
		log.Warn("No data to import to Vertex AI Search")
		return result, nil
	}
	result.DataPath = exported.DataPath
	result.FilesExported = exported.FilesExported
	result.State = exported.State

	processed, err := p.ingest.Process(ctx, ProcessRequest{
		RunDir:       workDir,
		DataPath:     exported.DataPath,
		ExportMethod: p.cfg.ExportMethod,
		WithMetadata: p.cfg.Source.WithMetadata,
		Destination:  DestinationFromConfig(&p.cfg.Destination),
	})
	if processed != nil {
		result.DataStore = processed.DataStore
	}
	if err != nil {
		return result, err
	}

	log.WithField(logger.FieldCount, result.FilesExported).Info("Successfully imported data to Vertex AI Search")
	return result, nil
}

func (p *Pipeline) startRun(ctx context.Context, runID string) *domain.ExportRun {
	if p.journal == nil {
		return nil
	}
	run := &domain.ExportRun{
		ID:            runID,
		ConnectorID:   p.cfg.ConnectorID,
		ConnectorName: p.cfg.ConnectorName,
		ExportMethod:  p.cfg.ExportMethod,
		StartedAt:     p.now().UTC(),
	}
	if err := p.journal.Start(ctx, run); err != nil {
		logger.Or(ctx, p.logger).WithError(err).Warn("Failed to record run start")
		return nil
	}
	return run
}

func (p *Pipeline) finishRun(ctx context.Context, run *domain.ExportRun, result *RunResult, runErr error) {
	if run == nil {
		return
	}
	switch {
	case runErr != nil:
		run.Status = domain.RunStatusFailed
		run.ErrorLog = runErr.Error()
	case result.DataPath == "":
		run.Status = domain.RunStatusEmpty
	default:
		run.Status = domain.RunStatusCompleted
	}
	if result != nil {
		run.FilesExported = result.FilesExported
		run.DataPath = result.DataPath
		if result.DataStore != nil {
			run.DataStore = result.DataStore.Name
		}
	}
	if err := p.journal.Finish(context.WithoutCancel(ctx), run); err != nil {
		logger.Or(ctx, p.logger).WithError(err).Warn("Failed to record run result")
	}
}
