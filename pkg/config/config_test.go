package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setGatewayEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_CONFIG_NAME", "config-does-not-exist")
	t.Setenv("APP_AUTH_JWT_SECRET", "jwt-secret")
	t.Setenv("APP_GATEWAY_MERCHANT_ID", "PGTESTPAYUAT")
	t.Setenv("APP_GATEWAY_SALT_KEY", "salt-key")
	t.Setenv("APP_GATEWAY_SALT_INDEX", "1")
	t.Setenv("APP_GATEWAY_BASE_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox")
	t.Setenv("APP_GATEWAY_REDIRECT_URL", "http://localhost:5173/payment-success")
	t.Setenv("APP_GATEWAY_CALLBACK_URL", "http://localhost:5000/api/payment/callback")
}

func TestNew_ReadsGatewayFromEnv(t *testing.T) {
	setGatewayEnv(t)

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "PGTESTPAYUAT", c.Gateway.MerchantID)
	require.Equal(t, "1", c.Gateway.SaltIndex)
	require.Equal(t, "/pg/v1/pay", c.Gateway.PayEndpoint)
	require.Equal(t, int64(100), c.Gateway.AmountMultiplier)
	require.Equal(t, 15*time.Second, c.Gateway.Timeout)
	require.Equal(t, LateSuccessPolicyFlag, c.Payment.LateSuccessPolicy)
}

func TestNew_MissingSecretIsFatal(t *testing.T) {
	setGatewayEnv(t)
	t.Setenv("APP_GATEWAY_SALT_KEY", "")

	_, err := New()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingConfig))
	require.Contains(t, err.Error(), "gateway.salt_key")
}

func TestValidate_UnknownLateSuccessPolicy(t *testing.T) {
	c := &Config{
		Auth: AuthConfig{JWTSecret: "s"},
		Gateway: GatewayConfig{
			MerchantID: "m", SaltKey: "k", SaltIndex: "1", BaseURL: "http://x",
			RedirectURL: "http://r", CallbackURL: "http://c", AmountMultiplier: 100,
		},
		Payment: PaymentConfig{LateSuccessPolicy: "ignore"},
	}
	err := c.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "late_success_policy")
}
