// Package workspace prepares the output directory of a model run: the
// directory layout, an exclusive lock against concurrent preparation and a
// run.json manifest describing what the run will do.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/sbat/internal/config"
	"github.com/harrison/sbat/internal/filelock"
)

const (
	// LockFile is created inside the output directory while it is being prepared.
	LockFile = ".sbat.lock"
	// ManifestFile describes the prepared run.
	ManifestFile = "run.json"
)

// ErrWorkspaceBusy is returned when another process holds the workspace lock.
var ErrWorkspaceBusy = errors.New("workspace is locked by another process")

// Logger receives progress messages.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// Options control Prepare.
type Options struct {
	// BaseDir resolves relative paths of the configuration. Required.
	BaseDir string
	// ConfigPath and ConfigSHA256 identify the document in the manifest.
	ConfigPath   string
	ConfigSHA256 string
	// Wait > 0 retries a held lock until it elapses.
	Wait time.Duration
	// Logger may be nil.
	Logger Logger
	// Now overrides the manifest timestamp, for tests.
	Now func() time.Time
}

// Manifest is the content of run.json.
type Manifest struct {
	RunID         string            `json:"run_id"`
	ModelName     string            `json:"model_name"`
	ConfigPath    string            `json:"config_path,omitempty"`
	ConfigSHA256  string            `json:"config_sha256,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	OutputDir     string            `json:"output_directory"`
	StartDate     config.Date       `json:"start_date"`
	EndDate       config.Date       `json:"end_date"`
	Stages        []config.Stage    `json:"stages"`
	Decades       []string          `json:"decades,omitempty"`
	Directories   []string          `json:"directories"`
	Inputs        map[string]string `json:"inputs"`
	MissingInputs []string          `json:"missing_inputs,omitempty"`
}

// figureDirs maps stages to the figure directory their plots go to.
var figureDirs = map[config.Stage]string{
	config.StageDischarge:    "discharge",
	config.StageBaseflow:     "baseflow",
	config.StageRecession:    "recession",
	config.StageHydrogeology: "hydrogeology",
	config.StageWaterbalance: "waterbalance",
	config.StageBayesian:     "bayesian_updating",
}

// Prepare creates the output directory of cfg and writes its manifest while
// holding the workspace lock. The lock is released before returning.
func Prepare(ctx context.Context, cfg *config.Config, opts Options) (*Manifest, error) {
	if cfg == nil {
		return nil, errors.New("prepare workspace: nil configuration")
	}
	if opts.BaseDir == "" {
		return nil, errors.New("prepare workspace: base directory is required")
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	outputDir := cfg.OutputPath(opts.BaseDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := filelock.NewFileLock(filepath.Join(outputDir, LockFile))
	if err := acquire(ctx, lock, opts.Wait); err != nil {
		return nil, err
	}
	defer lock.Unlock()
	log.LogDebug(fmt.Sprintf("acquired %s", lock.Path()))

	m := &Manifest{
		RunID:        uuid.NewString(),
		ModelName:    cfg.Info.ModelName,
		ConfigPath:   opts.ConfigPath,
		ConfigSHA256: opts.ConfigSHA256,
		CreatedAt:    now().UTC(),
		OutputDir:    outputDir,
		StartDate:    cfg.Time.StartDate,
		EndDate:      cfg.Time.EndDate,
		Stages:       cfg.ActiveStages(),
		Inputs:       inputs(cfg, opts.BaseDir),
	}
	if m.Stages == nil {
		m.Stages = []config.Stage{}
	}
	if cfg.Time.ComputeEachDecade {
		m.Decades = cfg.Decades()
	}

	for _, dir := range layout(cfg, m.Stages) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Join(outputDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		m.Directories = append(m.Directories, dir)
		log.LogDebug(fmt.Sprintf("created %s", filepath.Join(outputDir, dir)))
	}

	m.MissingInputs = missingInputs(m.Inputs)
	for _, key := range m.MissingInputs {
		log.LogWarn(fmt.Sprintf("input %s not found: %s", key, m.Inputs[key]))
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := filelock.AtomicWrite(filepath.Join(outputDir, ManifestFile), append(data, '\n')); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	log.LogInfo(fmt.Sprintf("prepared %s for %s (%d stage(s))", outputDir, m.ModelName, len(m.Stages)))

	return m, nil
}

// ReadManifest loads run.json from a prepared output directory.
func ReadManifest(outputDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func acquire(ctx context.Context, lock *filelock.FileLock, wait time.Duration) error {
	if wait <= 0 {
		acquired, err := lock.TryLock()
		if err != nil {
			return err
		}
		if !acquired {
			return fmt.Errorf("%s: %w", lock.Path(), ErrWorkspaceBusy)
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	acquired, err := lock.TryLockContext(waitCtx, 50*time.Millisecond)
	if acquired {
		return nil
	}
	// The caller's own cancellation is not a busy workspace.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w (waited %s)", lock.Path(), ErrWorkspaceBusy, wait)
}

// layout lists the directories of a run relative to the output directory.
func layout(cfg *config.Config, stages []config.Stage) []string {
	dirs := []string{"data", "logs"}
	if !cfg.FileIO.Output.PlotResults {
		return dirs
	}
	for _, stage := range stages {
		dirs = append(dirs, filepath.Join("figures", figureDirs[stage]))
	}
	return dirs
}

// inputs lists the input files that the active stages read.
func inputs(cfg *config.Config, base string) map[string]string {
	in := map[string]string{
		"gauge_time_series": cfg.GaugeTimeSeriesPath(base),
		"gauge_meta":        cfg.GaugeMetaPath(base),
	}
	if p := cfg.GWLevelsPath(base); p != "" && cfg.Recession.Activate && cfg.Recession.HydrogeoParameterEstimation.Activate {
		in["gw_levels"] = p
	}
	needsNetwork := cfg.Waterbalance.Activate ||
		(cfg.Recession.Activate && (cfg.Recession.CurveData.CurveType == config.CurveWaterbalance ||
			cfg.Recession.HydrogeoParameterEstimation.Activate))
	if needsNetwork {
		for key, p := range cfg.GeospatialPaths(base) {
			in[key] = p
		}
	}
	return in
}

func missingInputs(in map[string]string) []string {
	var missing []string
	for key, p := range in {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogInfo(string)  {}
func (nopLogger) LogWarn(string)  {}
