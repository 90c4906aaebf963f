package env

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// EnvFile is loaded, when present, before the environment is read.
const EnvFile = ".env.local"

type Config struct {
	Host     string        `env:"RCON_HOST,default=127.0.0.1"`
	Port     int           `env:"RCON_PORT,default=25575"`
	Password string        `env:"RCON_PASSWORD"`
	Charset  string        `env:"RCON_CHARSET,default=UTF-8"`
	Timeout  time.Duration `env:"RCON_TIMEOUT,default=0s"`
	Debug    bool          `env:"RCON_DEBUG"`

	BridgeHost string `env:"RCON_BRIDGE_HOST,default=127.0.0.1"`
	BridgePort int    `env:"RCON_BRIDGE_PORT,default=7362"`
	DebugHTTP  bool   `env:"RCON_DEBUG_HTTP"`

	MockPassword string `env:"RCON_MOCK_PASSWORD"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(EnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("Failed to load %s: %w", EnvFile, err)
	}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	return &config, nil
}
