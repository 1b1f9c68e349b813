package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/payguard/upi-risk-engine/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ScorerMode selects the RiskScorer implementation wired at startup.
const (
	ScorerModeLocal     = "local"
	ScorerModeSimulated = "simulated"
	ScorerModeRemote    = "remote"
)

// Config holds application configuration for the risk engine.
type Config struct {
	ServerAddr  string `mapstructure:"SERVER_ADDR" validate:"required"`
	MetricsAddr string `mapstructure:"METRICS_ADDR" validate:"required"`

	ScorerMode string `mapstructure:"SCORER_MODE" validate:"required,oneof=local simulated remote"`
	// Remote scoring endpoint; required when SCORER_MODE=remote.
	ScorerAddr    string        `mapstructure:"SCORER_ADDR" validate:"required_if=ScorerMode remote"`
	ScorerTimeout time.Duration `mapstructure:"SCORER_TIMEOUT" validate:"required"`

	// Throttling of outbound prediction calls.
	ScorerRateLimitPerSec int           `mapstructure:"SCORER_RATE_LIMIT_PER_SEC" validate:"min=1"`
	ScorerRequestBurst    int           `mapstructure:"SCORER_REQUEST_BURST" validate:"min=1"`
	ScorerMaxThrottleWait time.Duration `mapstructure:"SCORER_MAX_THROTTLE_WAIT" validate:"required"` // Throttle wait guard: if the wait for a token would exceed this, fail fast

	HealthProbeInterval time.Duration `mapstructure:"HEALTH_PROBE_INTERVAL" validate:"required"`

	// Seed for the simulated scorer; only read when SCORER_MODE=simulated.
	SimulatedSeed int64 `mapstructure:"SIMULATED_SEED"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("SERVER_ADDR", ":8080")
	viper.SetDefault("METRICS_ADDR", ":9100")
	viper.SetDefault("SCORER_MODE", ScorerModeLocal)
	viper.SetDefault("SCORER_TIMEOUT", "5s")
	viper.SetDefault("SCORER_RATE_LIMIT_PER_SEC", "10")
	viper.SetDefault("SCORER_REQUEST_BURST", "5")
	viper.SetDefault("SCORER_MAX_THROTTLE_WAIT", "500ms")
	viper.SetDefault("HEALTH_PROBE_INTERVAL", "30s")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running_in_test_mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running_in_development_mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}

	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
