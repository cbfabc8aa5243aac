package commands

// Root command for Cobra CLI
// Registers the serve and render subcommands and the shared config flags

import (
	"fmt"

	"traffic-infographic/internal/config"
	"traffic-infographic/internal/features/charts"
	"traffic-infographic/internal/features/delivery"
	"traffic-infographic/internal/features/infographic"
	logging "traffic-infographic/internal/infra/log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "infographic",
	Short: "Traffic Infographic - turns a traffic and sales CSV into a PNG infographic",
	Long: `Traffic Infographic reads a CSV of website traffic sources and sales per period,
renders a pie chart of average traffic share and a bar chart of sales, and delivers
the composed PNG as base64, as a file on disk or as a Telegram photo.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
}

// app holds what both subcommands build from the loaded configuration.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	pipeline *infographic.Pipeline
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level})
	if err != nil {
		return nil, err
	}

	renderer, err := charts.NewRenderer(charts.Options{
		DPI:      cfg.Render.DPI,
		FontPath: cfg.Render.FontPath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      logger,
		pipeline: infographic.NewPipeline(renderer, logger),
	}, nil
}

func (a *app) adapter() (delivery.Adapter, error) {
	adapter, err := delivery.New(a.cfg.Delivery(), a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", a.cfg.Output.Mode, err)
	}
	return adapter, nil
}
