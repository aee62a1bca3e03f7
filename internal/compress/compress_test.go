package compress

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidsqueeze/internal/ffmpeg"
	"vidsqueeze/internal/probe"
	"vidsqueeze/internal/transcode"
)

type fakeProber struct {
	err  error
	info probe.VideoInfo
}

func (p *fakeProber) Video(_ context.Context, path string) (*probe.VideoInfo, error) {
	if p.err != nil {
		return nil, p.err
	}

	info := p.info
	info.Path = path
	return &info, nil
}

type fakeEncoder struct {
	calls   []string
	failOn  string
	cancel  context.CancelFunc
	updates []transcode.Progress
}

func (e *fakeEncoder) Encode(_ context.Context, req *Request, onProgress func(transcode.Progress)) error {
	e.calls = append(e.calls, req.Input)

	for _, update := range e.updates {
		onProgress(update)
	}

	if e.cancel != nil {
		e.cancel()
	}

	if e.failOn == req.Input {
		return assert.AnError
	}

	return os.WriteFile(req.Output, []byte("compressed"), 0o644)
}

type fakeMeter struct {
	started  []string
	advances []int64
	done     []string
}

func (m *fakeMeter) Start(input string, _ int64)  { m.started = append(m.started, input) }
func (m *fakeMeter) Advance(_ string, done int64) { m.advances = append(m.advances, done) }
func (m *fakeMeter) Done(input string, _ error)   { m.done = append(m.done, input) }

func writeVideo(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0o644))
	return path
}

func newRunner(encoder Encoder, prober Prober, meter Meter) *Runner {
	return &Runner{
		Encoder: encoder,
		Prober:  prober,
		Meter:   meter,
		Logger:  log.WithField("test", "runner"),
	}
}

func TestOutputPath(t *testing.T) {
	opts := ffmpeg.Options{Resolution: "720p", Quality: ffmpeg.QualityUnset}

	assert.Equal(t, filepath.Join("videos", "clip-ffmpeg-r720p.mp4"),
		OutputPath(filepath.Join("videos", "clip.mp4"), "", opts))

	assert.Equal(t, filepath.Join("out", "clip-ffmpeg-r720p.mp4"),
		OutputPath(filepath.Join("videos", "clip.mp4"), "out", opts))

	// the suffix keeps the output distinct from the input
	assert.NotEqual(t, "clip.mp4", OutputPath("clip.mp4", "", ffmpeg.Options{Quality: ffmpeg.QualityUnset}))
}

func TestProcessBatchPartialFailure(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeVideo(t, dir, "a.mp4"),
		writeVideo(t, dir, "b.mp4"),
		writeVideo(t, dir, "c.mp4"),
	}

	encoder := &fakeEncoder{failOn: inputs[1]}
	prober := &fakeProber{info: probe.VideoInfo{Duration: 10, Size: 16}}
	runner := newRunner(encoder, prober, nil)

	results := runner.Process(context.Background(), inputs, ffmpeg.Options{Quality: ffmpeg.QualityUnset})
	require.Len(t, results, 3)

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
			assert.Equal(t, CategoryEncoder, result.Category)
			assert.Equal(t, inputs[1], result.Input)
		} else {
			assert.NotEmpty(t, result.Output)
			assert.Equal(t, int64(len("compressed")), result.OutputSize)
		}
	}

	assert.Equal(t, 1, failed)
	assert.Equal(t, inputs, encoder.calls, "batch must continue past a failed file")
}

func TestProcessMissingInput(t *testing.T) {
	encoder := &fakeEncoder{}
	runner := newRunner(encoder, &fakeProber{}, nil)

	results := runner.Process(context.Background(),
		[]string{filepath.Join(t.TempDir(), "missing.mp4")},
		ffmpeg.Options{Quality: ffmpeg.QualityUnset})

	require.Len(t, results, 1)
	assert.True(t, results[0].Failed())
	assert.Equal(t, CategoryValidation, results[0].Category)
	assert.Empty(t, encoder.calls, "no child process may be launched for a missing input")
}

func TestProcessEmptyInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.mp4")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	encoder := &fakeEncoder{}
	runner := newRunner(encoder, &fakeProber{}, nil)

	results := runner.Process(context.Background(), []string{path}, ffmpeg.Options{Quality: ffmpeg.QualityUnset})

	require.Len(t, results, 1)
	assert.Equal(t, CategoryValidation, results[0].Category)
	assert.Empty(t, encoder.calls)
}

func TestProcessProbeFailure(t *testing.T) {
	dir := t.TempDir()
	input := writeVideo(t, dir, "noise.mp4")

	encoder := &fakeEncoder{}
	runner := newRunner(encoder, &fakeProber{err: assert.AnError}, nil)

	results := runner.Process(context.Background(), []string{input}, ffmpeg.Options{Quality: ffmpeg.QualityUnset})

	require.Len(t, results, 1)
	assert.Equal(t, CategoryValidation, results[0].Category)
	assert.Empty(t, encoder.calls)
}

func TestProcessInterrupt(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeVideo(t, dir, "a.mp4"),
		writeVideo(t, dir, "b.mp4"),
		writeVideo(t, dir, "c.mp4"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	encoder := &fakeEncoder{cancel: cancel}
	prober := &fakeProber{info: probe.VideoInfo{Duration: 10, Size: 16}}
	runner := newRunner(encoder, prober, nil)

	results := runner.Process(ctx, inputs, ffmpeg.Options{Quality: ffmpeg.QualityUnset})

	assert.Len(t, results, 1, "batch must stop once the context is canceled")
	assert.Equal(t, []string{inputs[0]}, encoder.calls)
}

func TestProcessMeterUpdates(t *testing.T) {
	dir := t.TempDir()
	input := writeVideo(t, dir, "a.mp4")

	encoder := &fakeEncoder{updates: []transcode.Progress{
		{OutTime: 5},
		{OutTime: 10, Done: true},
	}}
	prober := &fakeProber{info: probe.VideoInfo{Duration: 10, Size: 1000}}
	meter := &fakeMeter{}
	runner := newRunner(encoder, prober, meter)

	results := runner.Process(context.Background(), []string{input}, ffmpeg.Options{Quality: ffmpeg.QualityUnset})

	require.Len(t, results, 1)
	assert.Equal(t, []string{input}, meter.started)
	assert.Equal(t, []int64{500, 1000}, meter.advances)
	assert.Equal(t, []string{input}, meter.done)
}

func TestProcessIdempotent(t *testing.T) {
	dir := t.TempDir()
	input := writeVideo(t, dir, "a.mp4")
	before, err := os.ReadFile(input)
	require.NoError(t, err)

	encoder := &fakeEncoder{}
	prober := &fakeProber{info: probe.VideoInfo{Duration: 10, Size: 16}}
	runner := newRunner(encoder, prober, nil)
	opts := ffmpeg.Options{Quality: ffmpeg.QualityUnset}

	first := runner.Process(context.Background(), []string{input}, opts)
	second := runner.Process(context.Background(), []string{input}, opts)

	require.False(t, first[0].Failed())
	require.False(t, second[0].Failed())
	assert.Equal(t, first[0].Output, second[0].Output)

	after, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, before, after, "source file must not be mutated")
}

func TestScaleProgress(t *testing.T) {
	info := &probe.VideoInfo{Duration: 100, Size: 1000}

	assert.Equal(t, int64(250), scaleProgress(transcode.Progress{OutTime: 25}, info))
	assert.Equal(t, int64(1000), scaleProgress(transcode.Progress{OutTime: 2000}, info), "overshoot is clamped")
	assert.Equal(t, int64(1000), scaleProgress(transcode.Progress{Done: true}, info))
	assert.Zero(t, scaleProgress(transcode.Progress{OutTime: 5}, &probe.VideoInfo{Size: 1000}))
}
