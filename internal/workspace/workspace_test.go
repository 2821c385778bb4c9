package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/sbat/internal/config"
	"github.com/harrison/sbat/internal/filelock"
)

func loadExample(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "config", "testdata", "example3.yml"))
	require.NoError(t, err)
	return cfg
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+" "+msg)
}

func (r *recordingLogger) LogDebug(msg string) { r.add("DEBUG", msg) }
func (r *recordingLogger) LogInfo(msg string)  { r.add("INFO", msg) }
func (r *recordingLogger) LogWarn(msg string)  { r.add("WARN", msg) }

func (r *recordingLogger) count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.lines {
		if strings.HasPrefix(l, level+" ") {
			n++
		}
	}
	return n
}

func TestPrepare(t *testing.T) {
	cfg := loadExample(t)
	base := t.TempDir()
	created := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	log := &recordingLogger{}

	m, err := Prepare(context.Background(), cfg, Options{
		BaseDir:      base,
		ConfigPath:   "/configs/example3.yml",
		ConfigSHA256: "deadbeef",
		Logger:       log,
		Now:          func() time.Time { return created },
	})
	require.NoError(t, err)

	outputDir := filepath.Join(base, "output", "example3")
	assert.Equal(t, outputDir, m.OutputDir)
	assert.Equal(t, "example3", m.ModelName)
	assert.Equal(t, created, m.CreatedAt)
	assert.NotEmpty(t, m.RunID)
	assert.Equal(t, []config.Stage{
		config.StageDischarge, config.StageBaseflow, config.StageWaterbalance, config.StageBayesian,
	}, m.Stages)
	assert.Equal(t, []string{"1995", "2005", "2015", "2025"}, m.Decades)
	// plot_results is false in the example, so no figure directories.
	assert.Equal(t, []string{"data", "logs"}, m.Directories)

	for _, dir := range m.Directories {
		info, err := os.Stat(filepath.Join(outputDir, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// None of the inputs exist in the temp base directory.
	assert.Equal(t, []string{
		"branches_topology", "gauge_basins", "gauge_meta", "gauge_time_series", "river_network",
	}, m.MissingInputs)
	assert.Equal(t, 5, log.count("WARN"))
	assert.Equal(t, 1, log.count("INFO"))

	onDisk, err := ReadManifest(outputDir)
	require.NoError(t, err)
	assert.Equal(t, m, onDisk)
}

func TestPrepareFigureDirectories(t *testing.T) {
	cfg := loadExample(t)
	cfg.FileIO.Output.PlotResults = true
	cfg.Recession.Activate = true
	base := t.TempDir()

	m, err := Prepare(context.Background(), cfg, Options{BaseDir: base})
	require.NoError(t, err)

	want := []string{
		"data",
		"logs",
		filepath.Join("figures", "discharge"),
		filepath.Join("figures", "baseflow"),
		filepath.Join("figures", "recession"),
		filepath.Join("figures", "waterbalance"),
		filepath.Join("figures", "bayesian_updating"),
	}
	assert.Equal(t, want, m.Directories)
	for _, dir := range want {
		_, err := os.Stat(filepath.Join(m.OutputDir, dir))
		assert.NoError(t, err, dir)
	}
}

func TestPrepareInputs(t *testing.T) {
	cfg := loadExample(t)
	base := t.TempDir()
	dataDir := filepath.Join(base, "input", "example3")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	for _, name := range []string{"gauge_ts.csv", "gauge_meta.csv", "river_network.gpkg", "gauge_basins.gpkg", "branches_topology.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte("x"), 0644))
	}

	m, err := Prepare(context.Background(), cfg, Options{BaseDir: base})
	require.NoError(t, err)

	assert.Empty(t, m.MissingInputs)
	assert.Equal(t, filepath.Join(dataDir, "gauge_ts.csv"), m.Inputs["gauge_time_series"])
	// Groundwater levels are only read by hydrogeological parameter estimation.
	assert.NotContains(t, m.Inputs, "gw_levels")
}

func TestPrepareWithoutNetworkStages(t *testing.T) {
	cfg := loadExample(t)
	cfg.Waterbalance.Activate = false

	m, err := Prepare(context.Background(), cfg, Options{BaseDir: t.TempDir()})
	require.NoError(t, err)

	assert.Len(t, m.Inputs, 2)
	assert.NotContains(t, m.Inputs, "river_network")
}

func TestPrepareBusy(t *testing.T) {
	cfg := loadExample(t)
	base := t.TempDir()
	outputDir := cfg.OutputPath(base)
	require.NoError(t, os.MkdirAll(outputDir, 0755))

	holder := filelock.NewFileLock(filepath.Join(outputDir, LockFile))
	require.NoError(t, holder.Lock())

	_, err := Prepare(context.Background(), cfg, Options{BaseDir: base})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorkspaceBusy))

	_, err = Prepare(context.Background(), cfg, Options{BaseDir: base, Wait: 80 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorkspaceBusy))
	assert.Contains(t, err.Error(), "waited")

	_, statErr := os.Stat(filepath.Join(outputDir, ManifestFile))
	assert.True(t, os.IsNotExist(statErr), "manifest written without the lock")

	require.NoError(t, holder.Unlock())
	_, err = Prepare(context.Background(), cfg, Options{BaseDir: base})
	assert.NoError(t, err)
}

func TestPrepareWaitsForLock(t *testing.T) {
	cfg := loadExample(t)
	base := t.TempDir()
	outputDir := cfg.OutputPath(base)
	require.NoError(t, os.MkdirAll(outputDir, 0755))

	holder := filelock.NewFileLock(filepath.Join(outputDir, LockFile))
	require.NoError(t, holder.Lock())
	time.AfterFunc(50*time.Millisecond, func() { holder.Unlock() })

	_, err := Prepare(context.Background(), cfg, Options{BaseDir: base, Wait: 5 * time.Second})
	assert.NoError(t, err)
}

func TestPrepareCancelled(t *testing.T) {
	cfg := loadExample(t)
	base := t.TempDir()
	outputDir := cfg.OutputPath(base)
	require.NoError(t, os.MkdirAll(outputDir, 0755))

	holder := filelock.NewFileLock(filepath.Join(outputDir, LockFile))
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Prepare(ctx, cfg, Options{BaseDir: base, Wait: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrWorkspaceBusy))
}

func TestPrepareConcurrent(t *testing.T) {
	cfg := loadExample(t)
	base := t.TempDir()

	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Prepare(context.Background(), cfg, Options{BaseDir: base, Wait: 5 * time.Second})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	_, err := ReadManifest(cfg.OutputPath(base))
	assert.NoError(t, err)
}

func TestPrepareRequiresBaseDir(t *testing.T) {
	_, err := Prepare(context.Background(), loadExample(t), Options{})
	assert.Error(t, err)

	_, err = Prepare(context.Background(), nil, Options{BaseDir: t.TempDir()})
	assert.Error(t, err)
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
