package retrain

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/adapters/history"
	"github.com/phishguard/phishing-filter/internal/adapters/modelstore"
	"github.com/phishguard/phishing-filter/internal/core"
)

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	return Config{
		ModelPath:    filepath.Join(dir, "model.gob"),
		BackupDir:    filepath.Join(dir, "backups"),
		MinNewEmails: 3,
	}
}

func phishingExample(body string, uploadedAt time.Time) core.TrainingExample {
	return core.TrainingExample{
		Email: core.EmailRecord{
			Sender:  "win@claim-prizes.xyz",
			Subject: "urgent winner notice",
			Body:    body,
		},
		Indicators: []core.Indicator{
			{Type: core.IndicatorURL, Value: "http://claim-prizes.xyz/win", Severity: core.SeverityHigh},
		},
		IsPhishing: true,
		UploadedAt: uploadedAt,
	}
}

func legitimateExample(body string, uploadedAt time.Time) core.TrainingExample {
	return core.TrainingExample{
		Email: core.EmailRecord{
			Sender:  "carol@example.com",
			Subject: "project update",
			Body:    body,
		},
		IsPhishing: false,
		UploadedAt: uploadedAt,
	}
}

func seedHistory(t *testing.T, store core.HistoryStore, labels []bool) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	for i, phish := range labels {
		var example core.TrainingExample
		if phish {
			example = phishingExample("claim your lottery prize password verify click here", now)
		} else {
			example = legitimateExample("meeting notes attached for review tomorrow", now)
		}
		require.NoError(t, store.Insert(ctx, example), "example %d", i)
	}
}

func TestRunInsufficientData(t *testing.T) {
	hist := history.NewMemoryHistory(zap.NewNop())
	seedHistory(t, hist, []bool{true, true, false})

	o := New(hist, modelstore.New(zap.NewNop()), testConfig(t), zap.NewNop())

	_, err := o.Run(context.Background(), true)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRunUnbalancedDataset(t *testing.T) {
	hist := history.NewMemoryHistory(zap.NewNop())
	seedHistory(t, hist, []bool{true, true, true, false})

	cfg := testConfig(t)
	o := New(hist, modelstore.New(zap.NewNop()), cfg, zap.NewNop())

	_, err := o.Run(context.Background(), true)
	assert.ErrorIs(t, err, ErrUnbalancedDataset)

	// Nothing was trained or saved.
	_, statErr := os.Stat(cfg.ModelPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunTrainsAndSaves(t *testing.T) {
	hist := history.NewMemoryHistory(zap.NewNop())
	seedHistory(t, hist, []bool{true, true, false, false})

	cfg := testConfig(t)
	store := modelstore.New(zap.NewNop())
	o := New(hist, store, cfg, zap.NewNop())

	report, err := o.Run(context.Background(), true)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.True(t, strings.HasPrefix(report.Version, "rf-"))
	assert.Equal(t, 4, report.Samples)
	assert.Equal(t, 2, report.Phishing)
	assert.Equal(t, 2, report.Legitimate)
	assert.GreaterOrEqual(t, report.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Accuracy, 1.0)

	artifact, err := store.Load(cfg.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, report.Version, artifact.Version)
	assert.NoError(t, artifact.Validate())
}

func TestRunBacksUpBeforeOverwrite(t *testing.T) {
	hist := history.NewMemoryHistory(zap.NewNop())
	seedHistory(t, hist, []bool{true, true, false, false})

	cfg := testConfig(t)
	store := modelstore.New(zap.NewNop())
	o := New(hist, store, cfg, zap.NewNop())

	_, err := o.Run(context.Background(), true)
	require.NoError(t, err)

	oldBytes, err := os.ReadFile(cfg.ModelPath)
	require.NoError(t, err)

	// First run had nothing to back up; the second must back up the live model.
	_, err = o.Run(context.Background(), true)
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.BackupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	backupBytes, err := os.ReadFile(filepath.Join(cfg.BackupDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, oldBytes, backupBytes)
}

func TestRunTrainingFailureKeepsLiveArtifact(t *testing.T) {
	cfg := testConfig(t)
	store := modelstore.New(zap.NewNop())

	good := history.NewMemoryHistory(zap.NewNop())
	seedHistory(t, good, []bool{true, true, false, false})
	_, err := New(good, store, cfg, zap.NewNop()).Run(context.Background(), true)
	require.NoError(t, err)

	liveBefore, err := os.ReadFile(cfg.ModelPath)
	require.NoError(t, err)

	// A corpus with no usable terms makes the training step fail after the
	// backup was taken.
	bad := history.NewMemoryHistory(zap.NewNop())
	ctx := context.Background()
	now := time.Now()
	for _, phish := range []bool{true, true, false, false} {
		example := core.TrainingExample{
			Email:      core.EmailRecord{Body: "to the and of"},
			IsPhishing: phish,
			UploadedAt: now,
		}
		require.NoError(t, bad.Insert(ctx, example))
	}

	_, err = New(bad, store, cfg, zap.NewNop()).Run(context.Background(), true)
	require.Error(t, err)

	liveAfter, err := os.ReadFile(cfg.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, liveBefore, liveAfter)
}

func TestRunSkippedByGate(t *testing.T) {
	hist := history.NewMemoryHistory(zap.NewNop())
	seedHistory(t, hist, []bool{true, true, false, false})

	cfg := testConfig(t)
	cfg.MinNewEmails = 100
	store := modelstore.New(zap.NewNop())
	o := New(hist, store, cfg, zap.NewNop())

	// First run trains a model; immediately after, no new data has arrived.
	_, err := o.Run(context.Background(), true)
	require.NoError(t, err)

	report, err := o.Run(context.Background(), false)
	assert.NoError(t, err)
	assert.Nil(t, report)
}

func TestCheckRetrainNeeded(t *testing.T) {
	ctx := context.Background()

	t.Run("no existing model", func(t *testing.T) {
		hist := history.NewMemoryHistory(zap.NewNop())
		o := New(hist, modelstore.New(zap.NewNop()), testConfig(t), zap.NewNop())

		decision, err := o.CheckRetrainNeeded(ctx)
		require.NoError(t, err)
		assert.True(t, decision.ShouldRetrain)
		assert.Equal(t, "no existing model", decision.Reason)
	})

	t.Run("new emails since training", func(t *testing.T) {
		hist := history.NewMemoryHistory(zap.NewNop())
		seedHistory(t, hist, []bool{true, true, false, false})

		cfg := testConfig(t)
		store := modelstore.New(zap.NewNop())
		o := New(hist, store, cfg, zap.NewNop())
		_, err := o.Run(ctx, true)
		require.NoError(t, err)

		// Arrivals after the training timestamp trip the threshold.
		future := time.Now().Add(time.Hour)
		for i := 0; i < cfg.MinNewEmails; i++ {
			require.NoError(t, hist.Insert(ctx, legitimateExample("later arrival", future)))
		}

		decision, err := o.CheckRetrainNeeded(ctx)
		require.NoError(t, err)
		assert.True(t, decision.ShouldRetrain)
		assert.Contains(t, decision.Reason, "new emails since last training")
	})

	t.Run("not enough new data", func(t *testing.T) {
		hist := history.NewMemoryHistory(zap.NewNop())
		seedHistory(t, hist, []bool{true, true, false, false})

		cfg := testConfig(t)
		cfg.MinNewEmails = 100
		store := modelstore.New(zap.NewNop())
		o := New(hist, store, cfg, zap.NewNop())
		_, err := o.Run(ctx, true)
		require.NoError(t, err)

		decision, err := o.CheckRetrainNeeded(ctx)
		require.NoError(t, err)
		assert.False(t, decision.ShouldRetrain)
	})
}
