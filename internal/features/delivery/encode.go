package delivery

import (
	"encoding/base64"

	"traffic-infographic/internal/features/infographic"
)

// Encoder returns the infographic inline as base64 PNG.
type Encoder struct{}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Mode() Mode { return ModeEncode }

func (e *Encoder) Deliver(ig *infographic.Infographic) (*Result, error) {
	data, err := EncodePNG(ig.Image())
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeEncode, Image: base64.StdEncoding.EncodeToString(data)}, nil
}
