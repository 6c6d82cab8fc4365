package progress

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonemaro/fileindex/pkg/logger"
)

type mockLogger struct {
	mu   sync.Mutex
	logs []string
}

func (m *mockLogger) add(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, s)
}

func (m *mockLogger) Info(msg string)                               { m.add("INFO: " + msg) }
func (m *mockLogger) Debug(msg string)                              { m.add("DEBUG: " + msg) }
func (m *mockLogger) Error(msg string)                              { m.add("ERROR: " + msg) }
func (m *mockLogger) Warn(msg string)                               { m.add("WARN: " + msg) }
func (m *mockLogger) Trace(msg string)                              { m.add("TRACE: " + msg) }
func (m *mockLogger) WithFields(fields logger.Fields) logger.Logger { return m }

type testWriter struct {
	buffer bytes.Buffer
	mu     sync.Mutex
}

func (w *testWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer.Write(p)
}

func (w *testWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer.String()
}

func fixed(s Status) Source {
	return func() Status { return s }
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		status Status
		finish func(Progress)
		verify func(*testing.T, string)
	}{
		{
			name:   "bar shows processed against discovered",
			config: Config{Style: StyleBar, Width: 60, NoColor: true},
			status: Status{Discovered: 1200, Indexed: 500, Skipped: 100},
			finish: func(p Progress) { p.Complete("Indexed 500 files") },
			verify: func(t *testing.T, out string) {
				assert.Contains(t, out, "600/1,200")
				assert.Contains(t, out, "Indexed 500 files")
				assert.Contains(t, out, "[=")
			},
		},
		{
			name:   "simple shows percentage",
			config: Config{Style: StyleSimple, NoColor: true},
			status: Status{Discovered: 4, Indexed: 2, Skipped: 1},
			finish: func(p Progress) { p.Error("Indexing failed") },
			verify: func(t *testing.T, out string) {
				assert.Contains(t, out, "75%")
				assert.Contains(t, out, "2 indexed, 1 skipped")
				assert.Contains(t, out, "Indexing failed")
			},
		},
		{
			name:   "spinner shows failures",
			config: Config{Style: StyleSpinner, NoColor: true},
			status: Status{Discovered: 10, Indexed: 7, Failed: 3},
			finish: func(p Progress) { p.Error("Indexing failed") },
			verify: func(t *testing.T, out string) {
				assert.Contains(t, out, "3 failed")
				assert.Contains(t, out, "✗ Indexing failed")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &testWriter{}
			tt.config.Output = w
			tt.config.RefreshRate = 5 * time.Millisecond

			p := New(tt.config, &mockLogger{})
			require.NotNil(t, p)

			p.Start("Indexing", fixed(tt.status))
			time.Sleep(30 * time.Millisecond)
			tt.finish(p)

			out := w.String()
			tt.verify(t, out)
			assert.NotContains(t, out, "\x1b[3", "no color codes with NoColor")
		})
	}
}

func TestProgressPollsSource(t *testing.T) {
	w := &testWriter{}
	var polls atomic.Int64
	source := func() Status {
		n := polls.Add(1)
		return Status{Discovered: n, Indexed: n}
	}

	p := New(Config{Style: StyleSimple, NoColor: true, RefreshRate: 5 * time.Millisecond, Output: w}, nil)
	p.Start("Indexing", source)

	require.Eventually(t, func() bool { return polls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	after := polls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, polls.Load(), "no polling after Stop")
}

func TestProgressLifecycle(t *testing.T) {
	w := &testWriter{}
	p := New(Config{NoColor: true, RefreshRate: 5 * time.Millisecond, Output: w}, nil)

	// stopping before starting is harmless
	p.Stop()
	p.Stop()

	p.Start("first", fixed(Status{}))
	p.Start("ignored while active", fixed(Status{}))
	p.Complete("first done")

	p.Start("second", fixed(Status{Discovered: 1, Indexed: 1}))
	p.Complete("second done")
	p.Stop()

	out := w.String()
	assert.Contains(t, out, "first done")
	assert.Contains(t, out, "second done")
	assert.NotContains(t, out, "ignored while active")
}

func TestHideAfterComplete(t *testing.T) {
	w := &testWriter{}
	p := New(Config{NoColor: true, RefreshRate: time.Hour, HideAfterComplete: true, Output: w}, nil)

	p.Start("Indexing", fixed(Status{}))
	p.Complete("never shown")

	assert.NotContains(t, w.String(), "never shown")
}

func TestBarRendererBounds(t *testing.T) {
	r := &barRenderer{width: 50, palette: newPalette(true)}

	tests := []struct {
		name   string
		status Status
		want   string
	}{
		{name: "nothing discovered", status: Status{}, want: "0/0"},
		{name: "processed exceeds discovered", status: Status{Discovered: 5, Indexed: 9}, want: "9/5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.render(tt.status, "Indexing", Statistics{}, stateRunning)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestIsSupportedTerminal(t *testing.T) {
	p := New(Config{Output: &testWriter{}}, nil)
	assert.False(t, p.IsSupportedTerminal())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "0s"},
		{in: 1400 * time.Millisecond, want: "1s"},
		{in: 90 * time.Second, want: "1m30s"},
		{in: 2*time.Hour + 3*time.Minute + 4*time.Second, want: "2h3m4s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}
