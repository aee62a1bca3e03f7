package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// DurationToSec converts an ffmpeg timestamp ("00:01:23.45") to seconds.
func DurationToSec(timestamp string) float64 {
	parts := strings.Split(timestamp, ":")

	if len(parts) != 3 {
		return 0
	}

	hours, _ := strconv.ParseFloat(parts[0], 64)
	minutes, _ := strconv.ParseFloat(parts[1], 64)
	seconds, _ := strconv.ParseFloat(parts[2], 64)

	return hours*3600 + minutes*60 + seconds
}

// FormatSize renders a byte count with the largest fitting unit, one decimal.
func FormatSize(bytes float64) string {
	if bytes == 0 {
		return "0.0B"
	}

	index := int(math.Floor(math.Log(math.Abs(bytes)) / math.Log(1024)))

	if index >= len(sizeUnits) {
		index = len(sizeUnits) - 1
	}

	if index < 0 {
		index = 0
	}

	return fmt.Sprintf("%.1f%s", bytes/math.Pow(1024, float64(index)), sizeUnits[index])
}

// FormatRate renders a transfer rate in bytes per second.
func FormatRate(bytesPerSec float64) string {
	return FormatSize(bytesPerSec) + "/s"
}

// FormatSeconds renders a duration with the largest fitting unit, one decimal.
func FormatSeconds(seconds float64) string {
	if seconds == 0 {
		return "0.0s"
	}

	abs := math.Abs(seconds)

	switch {
	case abs >= 3600:
		return fmt.Sprintf("%.1fh", seconds/3600)
	case abs >= 60:
		return fmt.Sprintf("%.1fm", seconds/60)
	case abs >= 1:
		return fmt.Sprintf("%.1fs", seconds)
	case abs >= 1e-3:
		return fmt.Sprintf("%.1fms", seconds*1e3)
	case abs >= 1e-6:
		return fmt.Sprintf("%.1fµs", seconds*1e6)
	default:
		return fmt.Sprintf("%.1fns", seconds*1e9)
	}
}
