package sitedb

import (
	"go.uber.org/zap"

	"github.com/EdGit97/sysdocs/dbf"
)

// Option configures a store.
type Option func(*storeOpts)

type storeOpts struct {
	logger *zap.Logger
}

// WithLogger attaches a logger to every table the store opens; the default
// is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOpts) { o.logger = logger }
}

func applyOpts(opts []Option) storeOpts {
	o := storeOpts{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o storeOpts) open(root string, def *dbf.TableDef) (*dbf.Table, error) {
	return dbf.OpenTable(root, def, dbf.WithLogger(o.logger))
}
