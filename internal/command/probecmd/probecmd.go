package probecmd

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vidsqueeze/internal/command/root"
	"vidsqueeze/internal/probe"
	"vidsqueeze/internal/util"
)

var logger = log.WithFields(log.Fields{
	"app": "probe",
})

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "probe INPUT_FILES...",
	Short: "Inspect video files without compressing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		prober := probe.NewProber(logger)
		rows := make([][]string, 0, len(args))
		failed := 0

		for _, path := range args {
			metadata, err := prober.Probe(cmd.Context(), path)

			if err != nil {
				failed++
				logger.WithError(err).Errorf("unable to probe '%s'", path)
				rows = append(rows, []string{path, "unreadable", "", "", ""})
				continue
			}

			stream := metadata.VideoStream()

			if stream == nil {
				failed++
				rows = append(rows, []string{path, "no video stream", "", "", ""})
				continue
			}

			duration, _ := strconv.ParseFloat(metadata.Format.Duration, 64)

			rows = append(rows, []string{
				path,
				stream.CodecName,
				fmt.Sprintf("%dx%d", stream.Width, stream.Height),
				fmt.Sprintf("%.2f fps", stream.FrameRate()),
				util.FormatSeconds(duration),
			})
		}

		fmt.Println(root.RenderTable(
			[]string{"File", "Codec", "Resolution", "Frame rate", "Duration"},
			rows,
			[]root.ColumnAlignment{root.AlignLeft, root.AlignLeft, root.AlignRight, root.AlignRight, root.AlignRight},
		))

		if failed > 0 {
			return errors.Errorf("%d of %d files could not be probed", failed, len(args))
		}

		return nil
	},
}
