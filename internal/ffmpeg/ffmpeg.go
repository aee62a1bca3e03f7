// Package ffmpeg translates compression options into ffmpeg invocations.
package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"vidsqueeze/internal/executor"
)

const (
	Binary = "ffmpeg"

	// DefaultQuality is ffmpeg's own libx264 CRF default.
	DefaultQuality = 23

	// QualityUnset marks an absent -q flag.
	QualityUnset = -1
)

// Options carries the user-selected compression settings. Zero values mean
// "unchanged": the source behavior is preserved and no flag is emitted.
type Options struct {
	NoAudio    bool
	Resolution string
	FPS        string
	Lossless   bool
	Quality    int
}

var scaleFilters = map[string]string{
	"4k":    `scale=min(3840\,iw):min(2160\,ih):force_original_aspect_ratio=decrease`,
	"1080p": `scale=min(1920\,iw):min(1080\,ih):force_original_aspect_ratio=decrease`,
	"720p":  `scale=min(1280\,iw):min(720\,ih):force_original_aspect_ratio=decrease`,
	"576p":  `scale=min(1024\,iw):min(576\,ih):force_original_aspect_ratio=decrease`,
	"480p":  `scale=min(854\,iw):min(480\,ih):force_original_aspect_ratio=decrease`,
}

var fpsAliases = map[string]string{
	"film":  "24",
	"pal":   "25",
	"ntsc":  "30",
	"60fps": "60",
}

// Resolutions lists the supported resolution names.
func Resolutions() []string {
	return []string{"4k", "1080p", "720p", "576p", "480p"}
}

// Validate rejects option values outside the supported sets.
func (o Options) Validate() error {
	if o.Resolution != "" {
		if _, ok := scaleFilters[o.Resolution]; !ok {
			return errors.Errorf("unsupported resolution '%s' (choose from %s)",
				o.Resolution, strings.Join(Resolutions(), ", "))
		}
	}

	if o.FPS != "" {
		if _, err := o.ResolveFPS(); err != nil {
			return err
		}
	}

	if o.Quality != QualityUnset && (o.Quality < 0 || o.Quality > 51) {
		return errors.Errorf("quality %d out of range (0-51)", o.Quality)
	}

	return nil
}

// ResolveFPS maps frame-rate aliases (film, pal, ntsc, 60fps) to their
// numeric value and validates custom rates.
func (o Options) ResolveFPS() (string, error) {
	if alias, ok := fpsAliases[o.FPS]; ok {
		return alias, nil
	}

	rate, err := strconv.ParseFloat(o.FPS, 64)

	if err != nil || rate <= 0 {
		return "", errors.Errorf("invalid frame rate '%s' (film, pal, ntsc, 60fps, or a positive number)", o.FPS)
	}

	return o.FPS, nil
}

// Suffix derives the output-name suffix encoding the chosen options, so
// different settings never collide on the same output file.
func (o Options) Suffix() string {
	parts := []string{"-ffmpeg"}

	if o.NoAudio {
		parts = append(parts, "-n")
	}

	if o.Resolution != "" {
		parts = append(parts, "-r"+o.Resolution)
	}

	if o.FPS != "" {
		parts = append(parts, "-f"+o.FPS)
	}

	if o.Lossless {
		parts = append(parts, "-lossless")
	}

	if o.Quality != QualityUnset {
		parts = append(parts, fmt.Sprintf("-q%d", o.Quality))
	}

	return strings.Join(parts, "")
}

// BuildCommand constructs the full ffmpeg argument list for one file.
// Progress is routed to stdout as key=value blocks via -progress pipe:1.
func BuildCommand(input, output string, opts Options) *executor.Cmd {
	cmd := &executor.Cmd{Binary: Binary}

	// stderr is captured into error messages, so keep it free of color codes
	cmd.Env("AV_LOG_FORCE_NOCOLOR=1")

	cmd.Add("-i", input)
	cmd.Add("-progress", "pipe:1")
	cmd.Add("-nostats")

	if opts.NoAudio {
		cmd.Add("-an")
	} else {
		cmd.Add("-c:a", "aac")
		cmd.Add("-b:a", "128k")
	}

	if opts.Resolution != "" {
		cmd.Add("-vf", scaleFilters[opts.Resolution])
	}

	if opts.FPS != "" {
		rate, _ := opts.ResolveFPS()
		cmd.Add("-r", rate)
	}

	cmd.Add("-c:v", "libx264")
	cmd.Add("-preset", "medium")

	if opts.Lossless {
		cmd.Add("-crf", "0")
	} else {
		quality := opts.Quality

		if quality == QualityUnset {
			quality = DefaultQuality
		}

		cmd.Add("-crf", strconv.Itoa(quality))
	}

	cmd.Add("-y")
	cmd.Add(output)

	return cmd
}
