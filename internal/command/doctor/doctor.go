package doctor

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vidsqueeze/internal/command/root"
	"vidsqueeze/internal/deps"
)

var logger = log.WithFields(log.Fields{
	"app": "doctor",
})

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that required external tools are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		statuses := deps.Check(cmd.Context(), logger, deps.Required())

		rows := make([][]string, 0, len(statuses))
		missing := 0

		for _, status := range statuses {
			detail := status.Version

			if !status.Available {
				missing++
				detail = status.Detail
			}

			state := "OK"

			if !status.Available {
				state = "MISSING"
			}

			rows = append(rows, []string{status.Name, status.Command, state, detail})
		}

		fmt.Println(root.RenderTable(
			[]string{"Tool", "Command", "Status", "Detail"},
			rows,
			[]root.ColumnAlignment{root.AlignLeft, root.AlignLeft, root.AlignLeft, root.AlignLeft},
		))

		if missing > 0 {
			return errors.Errorf("%d required tool(s) missing", missing)
		}

		return nil
	},
}
