package phonepe

import (
	"go.uber.org/fx"

	"github.com/fatflowers/examportal/pkg/config"
)

func newSigner(cfg *config.Config) (*Signer, error) {
	return NewSigner(cfg.Gateway.SaltKey, cfg.Gateway.SaltIndex)
}

func newClient(cfg *config.Config, signer *Signer) (*Client, error) {
	return NewClient(ClientOptions{
		BaseURL:              cfg.Gateway.BaseURL,
		MerchantID:           cfg.Gateway.MerchantID,
		PayEndpoint:          cfg.Gateway.PayEndpoint,
		StatusEndpointPrefix: cfg.Gateway.StatusEndpointPrefix,
		Timeout:              cfg.Gateway.Timeout,
		Signer:               signer,
	})
}

var Module = fx.Options(
	fx.Provide(newSigner, newClient),
)
