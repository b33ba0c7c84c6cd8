// Package config provides configuration for the fraud scoring pipeline.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures runtime settings for the pipeline process.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Dimensions DimensionsConfig `mapstructure:"dimensions"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Inference  InferenceConfig  `mapstructure:"inference"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	NATS       NATSConfig       `mapstructure:"nats"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RedisConfig holds the connection for the dimension table store.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// DimensionsConfig names the six reference dimension tables. All six are
// required at startup: without a table handle no record could resolve.
type DimensionsConfig struct {
	CityTable            string `mapstructure:"city_table"`
	StateTable           string `mapstructure:"state_table"`
	UserAgentTable       string `mapstructure:"user_agent_table"`
	ProductCategoryTable string `mapstructure:"product_category_table"`
	PaymentCurrencyTable string `mapstructure:"payment_currency_table"`
	MerchantTable        string `mapstructure:"merchant_table"`
}

// SinkConfig holds the result store settings.
type SinkConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	Table       string `mapstructure:"table"`
	Migrate     bool   `mapstructure:"migrate"`
}

// InferenceConfig holds the scoring endpoint settings.
type InferenceConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ClassifierConfig holds the decision threshold.
type ClassifierConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// NATSConfig holds the optional batch delivery subscription.
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// OpenSearchConfig holds the optional investigation index.
type OpenSearchConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Index    string `mapstructure:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the optional YAML file at path (or
// $FRAUDPIPE_CONFIG if path is empty) with environment-variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("FRAUDPIPE_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("fraudpipe")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate enforces the startup contract: the six dimension tables, the
// result table, and the inference endpoint are all required. A missing
// handle is fatal because no record could possibly succeed without it.
func (c *Config) Validate() error {
	var missing []string

	required := []struct {
		name  string
		value string
	}{
		{"dimensions.city_table", c.Dimensions.CityTable},
		{"dimensions.state_table", c.Dimensions.StateTable},
		{"dimensions.user_agent_table", c.Dimensions.UserAgentTable},
		{"dimensions.product_category_table", c.Dimensions.ProductCategoryTable},
		{"dimensions.payment_currency_table", c.Dimensions.PaymentCurrencyTable},
		{"dimensions.merchant_table", c.Dimensions.MerchantTable},
		{"sink.table", c.Sink.Table},
		{"inference.endpoint", c.Inference.Endpoint},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8092)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	// Required handles default to empty so the keys are known to viper and
	// environment overrides bind; Validate rejects the empty values.
	v.SetDefault("dimensions.city_table", "")
	v.SetDefault("dimensions.state_table", "")
	v.SetDefault("dimensions.user_agent_table", "")
	v.SetDefault("dimensions.product_category_table", "")
	v.SetDefault("dimensions.payment_currency_table", "")
	v.SetDefault("dimensions.merchant_table", "")

	v.SetDefault("sink.database_url", "")
	v.SetDefault("sink.table", "")
	v.SetDefault("sink.migrate", true)

	v.SetDefault("inference.endpoint", "")
	v.SetDefault("inference.timeout", "30s")

	v.SetDefault("classifier.threshold", 0.1)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "transactions.batch")

	v.SetDefault("opensearch.enabled", false)
	v.SetDefault("opensearch.url", "https://localhost:9200")
	v.SetDefault("opensearch.username", "admin")
	v.SetDefault("opensearch.password", "")
	v.SetDefault("opensearch.index", "fraudpipe-scored")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
