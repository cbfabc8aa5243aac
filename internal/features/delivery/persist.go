package delivery

import (
	"traffic-infographic/internal/features/infographic"
	"traffic-infographic/internal/infra/failure"
	"traffic-infographic/internal/infra/fs"
	logging "traffic-infographic/internal/infra/log"

	"go.uber.org/zap"
)

// Persister writes every infographic to the same file in a fixed directory.
// Concurrent requests race on that file and the last writer wins; there is
// no locking and no versioning.
type Persister struct {
	dir      string
	filename string
	log      *logging.Logger
}

func NewPersister(dir, filename string, logger *logging.Logger) *Persister {
	if filename == "" {
		filename = DefaultFilename
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Persister{dir: dir, filename: filename, log: logger}
}

func (p *Persister) Mode() Mode { return ModePersist }

func (p *Persister) Deliver(ig *infographic.Infographic) (*Result, error) {
	path, err := fs.SavePNG(p.dir, p.filename, ig.Image())
	if err != nil {
		return nil, failure.IO(stageDelivery, "write infographic", err)
	}
	p.log.Info("Infographic saved", zap.String("path", path))
	return &Result{Mode: ModePersist, Path: path}, nil
}
