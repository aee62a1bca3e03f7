// Package pbar renders per-file compression progress on the terminal.
package pbar

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
)

const (
	trackerLength   = 25
	updateFrequency = 250 * time.Millisecond
	messageWidth    = 40
)

// Meter drives one go-pretty tracker per file. Rendering is skipped
// entirely when the output is not a terminal (pipes, CI logs).
type Meter struct {
	writer   progress.Writer
	trackers map[string]*progress.Tracker
	enabled  bool
	closed   bool
}

func New(out *os.File) *Meter {
	enabled := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())

	writer := progress.NewWriter()
	writer.SetOutputWriter(out)
	writer.SetAutoStop(false)
	writer.SetTrackerLength(trackerLength)
	writer.SetTrackerPosition(progress.PositionRight)
	writer.SetUpdateFrequency(updateFrequency)
	writer.Style().Visibility.ETA = true
	writer.Style().Visibility.Speed = true

	meter := &Meter{
		writer:   writer,
		trackers: make(map[string]*progress.Tracker),
		enabled:  enabled,
	}

	if enabled {
		go writer.Render()
	}

	return meter
}

func (m *Meter) Start(input string, total int64) {
	tracker := &progress.Tracker{
		Message: TruncatePath(input, messageWidth),
		Total:   total,
		Units:   progress.UnitsBytes,
	}

	m.trackers[input] = tracker

	if m.enabled {
		m.writer.AppendTracker(tracker)
	}
}

func (m *Meter) Advance(input string, done int64) {
	if tracker, ok := m.trackers[input]; ok {
		tracker.SetValue(done)
	}
}

func (m *Meter) Done(input string, err error) {
	tracker, ok := m.trackers[input]

	if !ok {
		return
	}

	if err != nil {
		tracker.MarkAsErrored()
	} else {
		tracker.MarkAsDone()
	}

	delete(m.trackers, input)
}

// Close flushes the final render state and stops the writer.
func (m *Meter) Close() {
	if !m.enabled || m.closed {
		return
	}

	m.closed = true

	for m.writer.IsRenderInProgress() && m.writer.LengthActive() > 0 {
		time.Sleep(updateFrequency / 5)
	}

	m.writer.Stop()
}

// TruncatePath shortens a path for display, preferring to keep the
// basename intact.
func TruncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	const ellipsis = "..."

	base := filepath.Base(path)

	if len(base)+len(ellipsis) <= maxLen {
		keep := maxLen - len(base) - len(ellipsis)
		return path[:keep] + ellipsis + base
	}

	cut := int(math.Max(1, float64(maxLen-len(ellipsis))))

	return base[:cut] + ellipsis
}
