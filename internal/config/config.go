package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Cron    CronConfig    `mapstructure:"cron"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Oracle  OracleConfig  `mapstructure:"oracle"`
	Escrow  EscrowConfig  `mapstructure:"escrow"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	RetentionTTL time.Duration `mapstructure:"retention_ttl"`
}

type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
}

type CronConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	SettleSweep string `mapstructure:"settle_sweep"`
}

// EngineConfig carries the wagering parameters fixed at boot: wager bounds,
// house edge in basis points, and the admin bearer token.
type EngineConfig struct {
	AdminToken   string `mapstructure:"admin_token"`
	MinWager     int64  `mapstructure:"min_wager"`
	MaxWager     int64  `mapstructure:"max_wager"`
	HouseEdgeBps int64  `mapstructure:"house_edge_bps"`
}

type OracleConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EscrowConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HouseAccount string        `mapstructure:"house_account"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9095")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.retention_ttl", "720h")
	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.settle_sweep", "@every 30s")
	v.SetDefault("engine.min_wager", 1)
	v.SetDefault("engine.max_wager", 1000000)
	v.SetDefault("engine.house_edge_bps", 500)
	v.SetDefault("oracle.base_url", "http://localhost:8090")
	v.SetDefault("oracle.timeout", "5s")
	v.SetDefault("escrow.base_url", "http://localhost:8091")
	v.SetDefault("escrow.timeout", "5s")
	v.SetDefault("escrow.house_account", "house")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
