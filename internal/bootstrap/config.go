package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	IsLocalCors    bool   `mapstructure:"LOCAL_CORS"`
	EngineMaxDepth int    `mapstructure:"ENGINE_MAX_DEPTH"`
	EngineWorkers  int    `mapstructure:"ENGINE_WORKERS"`
	EngineSeed     int64  `mapstructure:"ENGINE_SEED"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.EngineMaxDepth < 1 || c.EngineMaxDepth > 5 {
		c.EngineMaxDepth = 3
	}
	if c.EngineWorkers < 1 {
		c.EngineWorkers = 4
	}
}
