package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	PRPC    PRPCConfig    `json:"prpc"`
	Polling PollingConfig `json:"polling"`
	Cache   CacheConfig   `json:"cache"`
	Redis   RedisConfig   `json:"redis"`
	GeoIP   GeoIPConfig   `json:"geoip"`
	MongoDB MongoDBConfig `json:"mongodb"`
	Alerts  AlertsConfig  `json:"alerts"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
	SeedNodes      []string `json:"seed_nodes"`
	AdminSecret    string   `json:"admin_secret"`
}

type PRPCConfig struct {
	DefaultPort      int `json:"default_port"`
	Timeout          int `json:"timeout_seconds"`
	SyncConcurrency  int `json:"sync_concurrency"`
	SyncSampleLimit  int `json:"sync_sample_limit"`
	StatsSampleLimit int `json:"stats_sample_limit"`
}

type PollingConfig struct {
	SyncInterval  int `json:"sync_interval_seconds"`
	AlertInterval int `json:"alert_interval_seconds"`
}

type CacheConfig struct {
	TTL int `json:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

type AlertsConfig struct {
	DiscordToken     string `json:"discord_token"`
	DiscordChannelID string `json:"discord_channel_id"`
	ScoreThreshold   int    `json:"score_threshold"`
}

// defaultSeedNodes are the well-known entry points used to bootstrap
// discovery when no SEED_NODES override is configured.
var defaultSeedNodes = []string{
	"seed1.xandeum.network:6000",
	"seed2.xandeum.network:6000",
	"seed3.xandeum.network:6000",
	"seed4.xandeum.network:6000",
	"seed5.xandeum.network:6000",
	"seed6.xandeum.network:6000",
	"seed7.xandeum.network:6000",
	"seed8.xandeum.network:6000",
	"seed9.xandeum.network:6000",
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
			SeedNodes:      defaultSeedNodes,
		},
		PRPC: PRPCConfig{
			DefaultPort:      6000,
			Timeout:          3,
			SyncConcurrency:  15,
			SyncSampleLimit:  45,
			StatsSampleLimit: 25,
		},
		Polling: PollingConfig{
			SyncInterval:  300, // full sync every 5 minutes
			AlertInterval: 60,
		},
		Cache: CacheConfig{
			TTL: 30,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			DB:      0,
			Enabled: true,
			UseTLS:  false,
		},
		GeoIP: GeoIPConfig{
			DBPath: "",
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "pnode_analytics",
			Enabled:  true,
		},
		Alerts: AlertsConfig{
			ScoreThreshold: 50,
		},
	}

	// Load from config file if exists
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			if err := json.NewDecoder(file).Decode(cfg); err != nil {
				fmt.Printf("Warning: Failed to decode config file: %v\n", err)
			}
		}
	}

	// Environment variables override the config file
	loadEnv(cfg)

	// Command-line flags override everything
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")

	_ = fs.Parse(os.Args[1:])

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}

	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}
	if val := os.Getenv("SEED_NODES"); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Server.SeedNodes = parts
	}
	if val := os.Getenv("ADMIN_SECRET"); val != "" {
		cfg.Server.AdminSecret = val
	}

	if val := os.Getenv("PRPC_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.DefaultPort = p
		}
	}
	if val := os.Getenv("PRPC_TIMEOUT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.Timeout = p
		}
	}
	if val := os.Getenv("SYNC_CONCURRENCY"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.SyncConcurrency = p
		}
	}
	if val := os.Getenv("SYNC_SAMPLE_LIMIT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.SyncSampleLimit = p
		}
	}
	if val := os.Getenv("STATS_SAMPLE_LIMIT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.StatsSampleLimit = p
		}
	}

	if val := os.Getenv("SYNC_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.SyncInterval = p
		}
	}
	if val := os.Getenv("ALERT_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.AlertInterval = p
		}
	}

	if val := os.Getenv("CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = p
		}
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}

	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}

	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Alerts.DiscordToken = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Alerts.DiscordChannelID = val
	}
	if val := os.Getenv("ALERT_SCORE_THRESHOLD"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Alerts.ScoreThreshold = p
		}
	}
}

// Helper methods for duration conversion
func (c *Config) PRPCTimeoutDuration() time.Duration {
	return time.Duration(c.PRPC.Timeout) * time.Second
}

func (c *Config) SyncIntervalDuration() time.Duration {
	return time.Duration(c.Polling.SyncInterval) * time.Second
}

func (c *Config) AlertIntervalDuration() time.Duration {
	return time.Duration(c.Polling.AlertInterval) * time.Second
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}
