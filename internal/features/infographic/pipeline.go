package infographic

// CSV to infographic pipeline
// Runs loader -> role inference -> aggregation -> charts -> composition
// strictly forward; the first failing stage ends the run

import (
	"io"
	"time"

	"traffic-infographic/internal/features/charts"
	"traffic-infographic/internal/features/sheet"
	"traffic-infographic/internal/infra/failure"
	logging "traffic-infographic/internal/infra/log"

	"go.uber.org/zap"
)

type Pipeline struct {
	renderer *charts.Renderer
	log      *logging.Logger
}

func NewPipeline(renderer *charts.Renderer, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{renderer: renderer, log: logger}
}

// WithLogger returns a copy of the pipeline that logs through logger.
func (p *Pipeline) WithLogger(logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{renderer: p.renderer, log: logger}
}

// Build turns an uploaded CSV stream into an infographic.
func (p *Pipeline) Build(r io.Reader) (*Infographic, error) {
	start := time.Now()

	table, err := sheet.Load(r)
	if err != nil {
		return nil, p.fail(err)
	}
	p.log.Debug("CSV data loaded",
		zap.Strings("columns", table.ColumnNames()),
		zap.Int("rows", table.Rows()))

	roles, err := sheet.InferRoles(table)
	if err != nil {
		return nil, p.fail(err)
	}
	p.log.Debug("Column roles inferred",
		zap.String("time_axis", roles.TimeName),
		zap.Strings("traffic_sources", seriesNames(roles.Traffic)),
		zap.String("sales", roles.Sales.Name))

	agg := sheet.Aggregate(roles)

	raster, err := p.renderer.Render(agg)
	if err != nil {
		return nil, p.fail(err)
	}

	ig := Compose(raster)
	p.log.Debug("Infographic composed",
		zap.Int("width", ig.Width()),
		zap.Int("height", ig.Height()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	return ig, nil
}

func (p *Pipeline) fail(err error) error {
	p.log.Error("Infographic pipeline failed",
		zap.String("stage", failure.StageOf(err)),
		zap.String("kind", failure.KindOf(err).String()),
		zap.Error(err))
	return err
}

func seriesNames(series []sheet.Series) []string {
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
	}
	return names
}
