package bootstrap

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	alertdomain "github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/domain"
	storeinfra "github.com/seanhasenstein/macaport-fulfillment/internal/service/store/infrastructure"
)

// Config is the full configuration tree shared by all services. Each binary
// reads only the sections it needs.
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	// AlertRules drives the notification service's CEL rule set.
	AlertRules []alertdomain.Rule `yaml:"alertRules"`
	// StoreCacheTTLSeconds is the backstop expiry on cached store
	// snapshots; 0 disables it.
	StoreCacheTTLSeconds int `yaml:"storeCacheTtlSeconds"`
}

type InfraConfig struct {
	JaegerEndpoint string                `yaml:"jaegerEndpoint"`
	KafkaBrokers   string                `yaml:"kafkaBrokers"`
	RedisAddrs     string                `yaml:"redisAddrs"`
	ZookeeperAddrs string                `yaml:"zookeeperAddrs"`
	StoreAPIURL    string                `yaml:"storeApiUrl"`
	MySQL          storeinfra.MySQLConfig `yaml:"mysql"`
	Nacos          NacosConfig           `yaml:"nacos"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// Init loads the configuration once from CONFIG_PATH (default
// ./config.yaml), then applies environment overrides for the settings that
// differ per deployment.
func Init() {
	configOnce.Do(func() {
		path := getEnv("CONFIG_PATH", "config.yaml")
		cfg, err := loadConfig(path)
		if err != nil {
			// Services can run on env vars alone in development.
			fmt.Fprintf(os.Stderr, "WARN: config %s not loaded: %v\n", path, err)
			cfg = &Config{}
		}
		applyEnvOverrides(cfg)
		currentConfig = *cfg
	})
}

// GetCurrentConfig returns the loaded configuration. Init must have run.
func GetCurrentConfig() Config { return currentConfig }

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Infra.JaegerEndpoint = getEnv("JAEGER_ENDPOINT", defaultStr(cfg.Infra.JaegerEndpoint, "http://localhost:14268/api/traces"))
	cfg.Infra.KafkaBrokers = getEnv("KAFKA_BROKERS", defaultStr(cfg.Infra.KafkaBrokers, "localhost:9092"))
	cfg.Infra.RedisAddrs = getEnv("REDIS_ADDRS", defaultStr(cfg.Infra.RedisAddrs, "localhost:6379"))
	cfg.Infra.ZookeeperAddrs = getEnv("ZOOKEEPER_ADDRS", cfg.Infra.ZookeeperAddrs)
	cfg.Infra.StoreAPIURL = getEnv("STORE_API_URL", defaultStr(cfg.Infra.StoreAPIURL, "http://localhost:8091"))
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", defaultStr(cfg.Infra.Nacos.Group, "DEFAULT_GROUP"))

	cfg.Infra.MySQL.Host = getEnv("MYSQL_HOST", defaultStr(cfg.Infra.MySQL.Host, "localhost"))
	cfg.Infra.MySQL.Port = getEnv("MYSQL_PORT", defaultStr(cfg.Infra.MySQL.Port, "3306"))
	cfg.Infra.MySQL.User = getEnv("MYSQL_USER", defaultStr(cfg.Infra.MySQL.User, "macaport"))
	cfg.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.MySQL.Password)
	cfg.Infra.MySQL.Database = getEnv("MYSQL_DATABASE", defaultStr(cfg.Infra.MySQL.Database, "macaport"))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
