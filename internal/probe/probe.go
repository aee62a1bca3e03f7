package probe

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"vidsqueeze/internal/executor"
)

const Binary = "ffprobe"

type Metadata struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
}

type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// VideoInfo is the per-file summary the compression pipeline needs.
type VideoInfo struct {
	Path      string
	Duration  float64
	FrameRate float64
	Frames    int64
	Size      int64
}

type Prober struct {
	exec *executor.Executor
}

func NewProber(logger *log.Entry) *Prober {
	return &Prober{exec: executor.NewExecutor(logger)}
}

// Probe runs ffprobe on the file and decodes its JSON report.
func (p *Prober) Probe(ctx context.Context, path string) (*Metadata, error) {
	cmd := &executor.Cmd{Binary: Binary}
	cmd.Add("-v", "quiet")
	cmd.Add("-print_format", "json")
	cmd.Add("-show_format", "-show_streams")
	cmd.Add(path)

	out, err := p.exec.Run(ctx, cmd)

	if err != nil {
		return nil, errors.Wrapf(err, "probing '%s'", path)
	}

	metadata, err := ParseMetadata([]byte(out))

	if err != nil {
		return nil, errors.Wrapf(err, "decoding ffprobe report for '%s'", path)
	}

	return metadata, nil
}

// Video probes the file and distills the video stream into a VideoInfo.
func (p *Prober) Video(ctx context.Context, path string) (*VideoInfo, error) {
	metadata, err := p.Probe(ctx, path)

	if err != nil {
		return nil, err
	}

	stream := metadata.VideoStream()

	if stream == nil {
		return nil, errors.Errorf("no video stream found in '%s'", path)
	}

	stat, err := os.Stat(path)

	if err != nil {
		return nil, errors.Wrapf(err, "stating '%s'", path)
	}

	duration, _ := strconv.ParseFloat(stream.Duration, 64)

	if duration == 0 {
		duration, _ = strconv.ParseFloat(metadata.Format.Duration, 64)
	}

	fps := stream.FrameRate()

	return &VideoInfo{
		Path:      path,
		Duration:  duration,
		FrameRate: fps,
		Frames:    int64(fps * duration),
		Size:      stat.Size(),
	}, nil
}

func ParseMetadata(report []byte) (*Metadata, error) {
	var metadata Metadata

	if err := json.Unmarshal(report, &metadata); err != nil {
		return nil, err
	}

	return &metadata, nil
}

// VideoStream returns the first video stream, or nil if the file has none.
func (m *Metadata) VideoStream() *Stream {
	for i := range m.Streams {
		if m.Streams[i].CodecType == "video" {
			return &m.Streams[i]
		}
	}

	return nil
}

// FrameRate resolves the stream's "num/den" rational frame rate.
func (s *Stream) FrameRate() float64 {
	parts := strings.Split(s.RFrameRate, "/")

	if len(parts) != 2 {
		return 0
	}

	num, _ := strconv.ParseFloat(parts[0], 64)
	den, _ := strconv.ParseFloat(parts[1], 64)

	if den == 0 {
		return 0
	}

	return num / den
}
