package compress

import (
	"context"

	log "github.com/sirupsen/logrus"

	"vidsqueeze/internal/ffmpeg"
	"vidsqueeze/internal/transcode"
)

type ffmpegEncoder struct {
	logger *log.Entry
}

// NewEncoder returns the production Encoder backed by the external ffmpeg
// binary.
func NewEncoder(logger *log.Entry) Encoder {
	return &ffmpegEncoder{logger: logger}
}

func (e *ffmpegEncoder) Encode(ctx context.Context, req *Request, onProgress func(transcode.Progress)) error {
	command := ffmpeg.BuildCommand(req.Input, req.Output, req.Options)

	entry := e.logger

	if req.Info != nil {
		entry = entry.WithFields(log.Fields{
			"duration": req.Info.Duration,
			"fps":      req.Info.FrameRate,
			"size":     req.Info.Size,
		})
	}

	entry.Debugf("> %s", command)

	trans := transcode.New(command)

	done, err := trans.Run(ctx)

	if err != nil {
		return err
	}

	// ask for a clean finish first; CommandContext kills the child if
	// ffmpeg does not oblige
	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			_ = trans.Stop()
		case <-stopped:
		}
	}()

	for update := range trans.Output() {
		if onProgress != nil {
			onProgress(update)
		}
	}

	return <-done
}
