package steps

import (
	"context"

	"github.com/YuminosukeSato/fraudflow/feature"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/errors"
)

// Engineering is the feature engineering step. It applies the configured
// strategy through a feature.Handler.
type Engineering struct {
	Handler *feature.Handler
}

// NewEngineering builds the named strategy ("normalize", "log", "standard"
// or "minmax") over features. An empty features list transforms every
// column except the target.
func NewEngineering(strategy string, features []string, opts ...feature.Option) (*Engineering, error) {
	s, err := feature.New(strategy, features, opts...)
	if err != nil {
		return nil, err
	}
	return &Engineering{Handler: feature.NewHandler(s)}, nil
}

// Name implements pipeline.Step.
func (s *Engineering) Name() string { return NameEngineering }

// Run implements pipeline.Step.
func (s *Engineering) Run(ctx context.Context, a *pipeline.Artifacts) error {
	if s.Handler == nil {
		return errors.NewValidationError("handler", "must not be nil", nil)
	}
	res, err := s.Handler.Transform(a.Data, a.Target)
	if err != nil {
		return err
	}
	a.Data = res.Dataset
	a.Engineered = res.Dataset
	a.Transformed = res.Features
	a.Params = res.Params
	return nil
}
