package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Pushed()
	r.Pushed()
	r.Pulled()
	r.Skipped()
	r.Failed("pull")
	r.Failed("pull")
	r.Failed("push")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pushed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pulled))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.failures.WithLabelValues("pull")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("push")))
}

func TestRecorder_Nil(t *testing.T) {
	t.Parallel()

	var r *Recorder
	assert.NotPanics(t, func() {
		r.Pushed()
		r.Pulled()
		r.Skipped()
		r.Failed("push")
		r.Finished("push", StatusSuccess, time.Now())
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteFile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestRecorder_WriteFile(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Pulled()
	r.Finished("pull", StatusSuccess, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "kvsync.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "kvsync_secrets_pulled_total 1")
	assert.Contains(t, out, `kvsync_last_run_timestamp_seconds{direction="pull",status="success"} 1.7e+09`)

	n, err := testutil.GatherAndCount(r.Registry(), "kvsync_secrets_pushed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, strings.Contains(out, "go_goroutines"), "private registry carries no runtime collectors")
}

func TestRecorder_WriteFileEmptyPath(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewRecorder().WriteFile(""))
}
