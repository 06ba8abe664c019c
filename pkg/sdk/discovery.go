package sdk

import (
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/internal/config"
	"github.com/celerix-dev/celerix-builder/internal/tokenstore"
)

// NewFromConfig builds a Client whose session persists in the configured
// state directory, sealed when a token key is set.
func NewFromConfig(cfg *config.Config, log *zap.Logger) (*Client, error) {
	store, err := tokenstore.New(cfg.State.Dir, cfg.State.TokenKey)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return New(cfg.API.BaseURL,
		WithTimeout(cfg.GetTimeout()),
		WithTokenStore(store),
		WithLogger(log.Named("sdk")),
	), nil
}

var _ TokenStore = (*tokenstore.FileStore)(nil)
