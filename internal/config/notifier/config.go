package notifier_config

import (
	"time"

	"github.com/akudrin/taskwire/internal/obs"
	natsbroker "github.com/akudrin/taskwire/internal/repository/nats"
	pg "github.com/akudrin/taskwire/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr          string        `mapstructure:"http_addr"`
	MetricsAddr       string        `mapstructure:"metrics_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout   time.Duration `mapstructure:"graceful_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

type SSE struct {
	// HeartbeatInterval bounds every poll inside a stream session; it is the
	// longest a connected client goes without receiving any bytes.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App    App               `mapstructure:"app"`
	Server Server            `mapstructure:"server"`
	DB     pg.Config         `mapstructure:"db"`
	Broker natsbroker.Config `mapstructure:"broker"`
	SSE    SSE               `mapstructure:"sse"`
	OTEL   OTEL              `mapstructure:"otel"`
	Log    Log               `mapstructure:"log"`
}

func (c *Config) AsLoggerConfig() *obs.LogConfig {
	return &obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}
