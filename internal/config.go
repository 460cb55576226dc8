package internal

import "time"

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=5013"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=8192"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`

	LimitMessages *int `env:"LIMIT_MESSAGES"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:5173"`

	EnableModeration bool   `env:"ENABLE_MODERATION,default=true"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=5s"`
	GCInterval      time.Duration `env:"GC_INTERVAL,default=5m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
