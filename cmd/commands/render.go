package commands

// Command to render one CSV file without the HTTP server
// Runs the same pipeline and delivers through the configured adapter

import (
	"fmt"
	"os"

	"traffic-infographic/internal/features/delivery"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.csv>",
	Short: "Render an infographic from a local CSV file",
	Long: `Render an infographic from a local CSV file and deliver it through the configured
output mode. In encode mode the base64 PNG is printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("out", "", "Override the persist mode output directory")
}

func runRender(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		a.cfg.Output.Dir = out
	}

	adapter, err := a.adapter()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	ig, err := a.pipeline.Build(f)
	if err != nil {
		return err
	}

	res, err := adapter.Deliver(ig)
	if err != nil {
		return err
	}

	a.log.Success("Infographic rendered",
		zap.String("source", args[0]),
		zap.String("mode", string(res.Mode)))

	if res.Mode == delivery.ModeEncode {
		fmt.Fprintln(cmd.OutOrStdout(), res.Image)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message())
	return nil
}
