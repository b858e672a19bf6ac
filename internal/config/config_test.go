package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "REWARD_REDEEM_RATE")
	unsetEnvWithCleanup(t, "REWARD_EARN_RATE")
	unsetEnvWithCleanup(t, "RECONCILER_WORKERS")
	unsetEnvWithCleanup(t, "RECONCILER_QUEUE_SIZE")
	unsetEnvWithCleanup(t, "PAYMENT_RATE_LIMIT_PER_MINUTE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8084" {
		t.Fatalf("expected default ServerPort 8084, got %q", cfg.ServerPort)
	}
	if cfg.RewardRedeemRate != 200.0 {
		t.Fatalf("expected default RewardRedeemRate 200, got %f", cfg.RewardRedeemRate)
	}
	if cfg.RewardEarnRate != 10.0 {
		t.Fatalf("expected default RewardEarnRate 10, got %f", cfg.RewardEarnRate)
	}
	if cfg.ReconcilerWorkers != 4 {
		t.Fatalf("expected default ReconcilerWorkers 4, got %d", cfg.ReconcilerWorkers)
	}
	if cfg.ReconcilerQueueSize != 64 {
		t.Fatalf("expected default ReconcilerQueueSize 64, got %d", cfg.ReconcilerQueueSize)
	}
	if cfg.PaymentRateLimitPerMin != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %d", cfg.PaymentRateLimitPerMin)
	}
}

func TestLoadConfig_UsesPaymentServiceInternalAPIKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "INTERNAL_API_KEY")
	setEnvWithCleanup(t, "PAYMENT_SERVICE_INTERNAL_API_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "alias-only-key" {
		t.Fatalf("expected InternalAPIKey from alias env var, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_InternalAPIKeyTakesPrecedenceOverAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "INTERNAL_API_KEY", "primary-key")
	setEnvWithCleanup(t, "PAYMENT_SERVICE_INTERNAL_API_KEY", "alias-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "primary-key" {
		t.Fatalf("expected InternalAPIKey to prioritize INTERNAL_API_KEY, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_NonPositiveRatesFallBackToDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "REWARD_REDEEM_RATE", "-5")
	setEnvWithCleanup(t, "REWARD_EARN_RATE", "0")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RewardRedeemRate != 200.0 {
		t.Fatalf("expected redeem rate fallback 200, got %f", cfg.RewardRedeemRate)
	}
	if cfg.RewardEarnRate != 10.0 {
		t.Fatalf("expected earn rate fallback 10, got %f", cfg.RewardEarnRate)
	}
}

func TestLoadConfig_NegativeRateLimitDisablesLimiting(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "PAYMENT_RATE_LIMIT_PER_MINUTE", "-10")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PaymentRateLimitPerMin != 0 {
		t.Fatalf("expected negative rate limit to disable limiting, got %d", cfg.PaymentRateLimitPerMin)
	}
}

func TestLoadConfig_TrimsServiceURLs(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "USER_MANAGEMENT_SERVICE_URL", "  http://user-management:8082  ")
	setEnvWithCleanup(t, "SESSION_MANAGER_URL", " http://session-manager:8085 ")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.UserManagementServiceURL != "http://user-management:8082" {
		t.Fatalf("expected trimmed user management URL, got %q", cfg.UserManagementServiceURL)
	}
	if cfg.SessionManagerURL != "http://session-manager:8085" {
		t.Fatalf("expected trimmed session manager URL, got %q", cfg.SessionManagerURL)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
