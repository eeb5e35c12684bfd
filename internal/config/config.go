package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type DB struct {
	URL             string        `env:"DATABASE_URL,required,notEmpty"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
	MigrationsPath  string        `env:"MIGRATIONS_PATH" envDefault:"file://db/migrations"`
}

type HTTP struct {
	Port string `env:"PORT" envDefault:"8080"`
}

type Audit struct {
	DefaultListLimit    int  `env:"AUDIT_DEFAULT_LIST_LIMIT" envDefault:"100"`
	MaxListLimit        int  `env:"AUDIT_MAX_LIST_LIMIT" envDefault:"1000"`
	DetectRemovedFields bool `env:"AUDIT_DETECT_REMOVED_FIELDS" envDefault:"false"`
}

// Kafka mirroring is off when BootstrapServers is empty.
type Kafka struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	AuditTopic       string `env:"KAFKA_AUDIT_TOPIC" envDefault:"inventory.audit"`
	PublishQueue     int    `env:"KAFKA_PUBLISH_QUEUE" envDefault:"256"`
}

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DB       DB
	HTTP     HTTP
	Audit    Audit
	Kafka    Kafka
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Audit.DefaultListLimit <= 0 || c.Audit.MaxListLimit <= 0 {
		return fmt.Errorf("audit list limits must be positive")
	}
	if c.Audit.DefaultListLimit > c.Audit.MaxListLimit {
		return fmt.Errorf("AUDIT_DEFAULT_LIST_LIMIT %d exceeds AUDIT_MAX_LIST_LIMIT %d",
			c.Audit.DefaultListLimit, c.Audit.MaxListLimit)
	}
	return nil
}
