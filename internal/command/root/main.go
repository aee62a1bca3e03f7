package root

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidsqueeze/internal/compress"
	"vidsqueeze/internal/deps"
	"vidsqueeze/internal/ffmpeg"
	"vidsqueeze/internal/pbar"
	"vidsqueeze/internal/probe"
	"vidsqueeze/internal/signal"
	"vidsqueeze/internal/util"
)

var logger = log.WithFields(log.Fields{
	"app": "vidsqueeze",
})

var Cmd = &cobra.Command{
	Use:   "vidsqueeze [flags] INPUT_FILES...",
	Short: "Compress video files",
	Long: `Vidsqueeze compresses video files with ffmpeg, translating resolution,
frame-rate, and quality options into encoder invocations, one per input file.`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyVerbosity()
	},
	RunE: run,
}

// usageError marks mistakes in how the tool was invoked, as opposed to
// operational failures while processing files.
type usageError struct {
	error
}

func exitCode(err error) int {
	if _, ok := err.(usageError); ok {
		return 2
	}

	return 1
}

func Execute() {
	configureLogging()

	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	Cmd.PersistentFlags().CountP("verbose", "v", "Increase verbosity (-v status, -vv commands)")
	Cmd.PersistentFlags().Bool("debug", false, "Debug logging")

	Cmd.Flags().BoolP("no-audio", "n", false, "Strip the audio track")
	Cmd.Flags().StringP("resolution", "r", "", fmt.Sprintf("Target resolution (%s)", strings.Join(ffmpeg.Resolutions(), ", ")))
	Cmd.Flags().StringP("fps", "f", "", "Frame rate (film=24, pal=25, ntsc=30, 60fps=60, or a custom number)")
	Cmd.Flags().BoolP("lossless", "l", false, "Lossless mode")
	Cmd.Flags().IntP("quality", "q", ffmpeg.QualityUnset, "CRF quality (0-51, lower is better, 23 is default)")
	Cmd.Flags().StringP("output-dir", "o", "", "Directory for output files (default: beside each input)")

	viper.SetEnvPrefix("vidsqueeze")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(Cmd.PersistentFlags()); err != nil {
		logger.WithError(err).Fatal("flag binding failed")
	}

	if err := viper.BindPFlags(Cmd.Flags()); err != nil {
		logger.WithError(err).Fatal("flag binding failed")
	}

	Cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}

func configureLogging() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
}

// applyVerbosity runs after flag parsing, so -v/-vv/--debug can raise the
// level before any per-file work starts.
func applyVerbosity() {
	switch {
	case viper.GetBool("debug"), viper.GetInt("verbose") >= 2:
		log.SetLevel(log.DebugLevel)
	case viper.GetInt("verbose") == 1:
		log.SetLevel(log.InfoLevel)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return usageError{errors.New("no input files specified")}
	}

	opts := ffmpeg.Options{
		NoAudio:    viper.GetBool("no-audio"),
		Resolution: viper.GetString("resolution"),
		FPS:        viper.GetString("fps"),
		Lossless:   viper.GetBool("lossless"),
		Quality:    viper.GetInt("quality"),
	}

	if err := opts.Validate(); err != nil {
		return usageError{err}
	}

	// past this point failures are operational, not usage mistakes
	cmd.SilenceUsage = true

	ctx := signal.WatchInterrupt(cmd.Context())

	// a missing encoder is fatal once, before any per-file work
	if err := deps.Verify(ctx, logger); err != nil {
		return err
	}

	meter := pbar.New(os.Stderr)
	defer meter.Close()

	runner := &compress.Runner{
		Encoder:   compress.NewEncoder(logger),
		Prober:    probe.NewProber(logger),
		Meter:     meter,
		Logger:    logger,
		OutputDir: viper.GetString("output-dir"),
	}

	results := runner.Process(ctx, args, opts)

	meter.Close()
	printSummary(results)

	failed := 0

	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d files failed", failed, len(results))
	}

	return nil
}

func printSummary(results []compress.Result) {
	rows := make([][]string, 0, len(results))

	var totalIn, totalOut int64

	for _, result := range results {
		if result.Failed() {
			rows = append(rows, []string{
				result.Input,
				fmt.Sprintf("FAILED (%s)", result.Category),
				"", "", "",
			})
			continue
		}

		totalIn += result.InputSize
		totalOut += result.OutputSize

		rows = append(rows, []string{
			result.Input,
			"OK",
			result.Output,
			util.FormatSize(float64(result.OutputSize)),
			savings(result.InputSize, result.OutputSize),
		})

		entry := logger.WithFields(log.Fields{
			"output":  result.Output,
			"elapsed": util.FormatSeconds(result.Elapsed.Seconds()),
		})

		if result.Elapsed > 0 {
			entry = entry.WithField("rate", util.FormatRate(float64(result.InputSize)/result.Elapsed.Seconds()))
		}

		entry.Info("wrote output file")
	}

	fmt.Println(RenderTable(
		[]string{"File", "Status", "Output", "Size", "Saved"},
		rows,
		[]ColumnAlignment{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight},
	))

	if totalIn > 0 {
		fmt.Printf("Total: %s -> %s (%s saved)\n",
			util.FormatSize(float64(totalIn)),
			util.FormatSize(float64(totalOut)),
			savings(totalIn, totalOut))
	}

	for _, result := range results {
		if result.Failed() {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", result.Input, result.Err)
		}
	}
}

func savings(in, out int64) string {
	if in <= 0 {
		return ""
	}

	return fmt.Sprintf("%.1f%%", (1-float64(out)/float64(in))*100)
}
