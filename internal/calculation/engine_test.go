package calculation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rpgo/escape-velocity/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLogger captures formatted messages per level.
type recordingLogger struct {
	entries []string
}

func (r *recordingLogger) Tracef(format string, args ...any) { r.add("TRACE", format, args...) }
func (r *recordingLogger) Debugf(format string, args ...any) { r.add("DEBUG", format, args...) }
func (r *recordingLogger) Infof(format string, args ...any)  { r.add("INFO", format, args...) }
func (r *recordingLogger) Warnf(format string, args ...any)  { r.add("WARN", format, args...) }
func (r *recordingLogger) Errorf(format string, args ...any) { r.add("ERROR", format, args...) }

func (r *recordingLogger) add(level, format string, args ...any) {
	r.entries = append(r.entries, level+" "+fmt.Sprintf(format, args...))
}

func TestEngine_Run(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	SetNowFunc(func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 1500 * time.Millisecond)
	})
	t.Cleanup(func() { SetNowFunc(time.Now) })

	engine := NewEngine(WithWorkers(4))
	log := &recordingLogger{}
	engine.SetLogger(log)

	report, err := engine.Run(growthOnlyConfig())
	require.NoError(t, err)

	assert.Equal(t, int64(42), report.Metadata.Seed)
	assert.Equal(t, domain.StreamPerSimulation, report.Metadata.StreamMode)
	assert.Equal(t, 4, report.Metadata.Workers)
	assert.Equal(t, start, report.Metadata.GeneratedAt)
	assert.Equal(t, 1500*time.Millisecond, report.Metadata.Duration)
	assert.InDelta(t, 122504.3, report.MedianEndingAssets, 1e-6)
	assert.NotEmpty(t, log.entries)

	traces := 0
	for _, entry := range log.entries {
		if strings.HasPrefix(entry, "TRACE simulation ") {
			traces++
		}
	}
	assert.Equal(t, 1000, traces)
}

func TestEngine_SequentialReportsOneWorker(t *testing.T) {
	engine := NewEngine(WithStreamMode(domain.StreamSequential), WithWorkers(8))
	report, err := engine.Run(growthOnlyConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Metadata.Workers)
}

func TestEngine_TypedErrorsSurvive(t *testing.T) {
	cfg := growthOnlyConfig()
	cfg.TaxRate = 1.2

	_, err := NewEngine().Run(cfg)

	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "tax_rate", domainErr.Field)
}

func TestEngine_SetLoggerNil(t *testing.T) {
	engine := NewEngine()
	engine.SetLogger(nil)

	assert.IsType(t, NopLogger{}, engine.Logger)
	assert.IsType(t, NopLogger{}, engine.Simulator.Logger)
	assert.IsType(t, NopLogger{}, engine.Aggregator.Logger)
}
