package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	App struct {
		Name     string
		PostNoun string
		Seed     bool
	}
	Log struct {
		Level string
	}
	Database struct {
		Driver string
		Path   string
	}
	Auth struct {
		JWTSecret         string
		TokenTTLMinutes   int
		SessionTTLMinutes int
		BcryptCost        int
	}
	Storage struct {
		Driver    string
		LocalDir  string
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Avatar struct {
		Size    int
		Workers int
	}
	Metrics struct {
		Enabled bool
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("SHARESTUFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("app.name", "ShareStuff")
	v.SetDefault("app.postnoun", "Post")
	v.SetDefault("app.seed", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.path", "data/sharestuff.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 60*24)
	v.SetDefault("auth.sessionttlminutes", 60*24)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.localdir", "data/public")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "sharestuff")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("avatar.size", 100)
	v.SetDefault("avatar.workers", 2)
	v.SetDefault("metrics.enabled", true)
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// loadDotEnv exports the entries of ./.env that are not already set in the
// environment, so AutomaticEnv picks them up.
func loadDotEnv() {
	dot := viper.New()
	dot.SetConfigFile(".env")
	dot.SetConfigType("env")
	if err := dot.ReadInConfig(); err != nil {
		return
	}

	for _, key := range dot.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); !exists {
			_ = os.Setenv(name, dot.GetString(key))
		}
	}
}
