package httptransport

import (
	"fmt"

	ql "github.com/llehouerou/go-ql"
	"github.com/llehouerou/go-ql/config"
	"github.com/llehouerou/go-ql/internal/observability"
)

// NewClient wires a ql.Client to an HTTP transport built from cfg. The
// client and the transport share the logger described by cfg.Log, and
// cfg.Debug enables debug mode on both.
func NewClient(reg *ql.Registry, cfg config.Config) (*ql.Client, error) {
	t, err := NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("httptransport: %w", err)
	}
	return ql.NewClient(reg, t.WithLogger(logger)).
		WithLogger(logger).
		WithDebug(cfg.Debug), nil
}
