package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// DefaultProgramID is the swap program whose namespace owns badge records.
const DefaultProgramID = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"

// Config holds all configuration for the application
type Config struct {
	Solana         SolanaConfig         `mapstructure:"solana"`
	Program        ProgramConfig        `mapstructure:"program"`
	Log            LogConfig            `mapstructure:"log"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Policy         PolicyConfig         `mapstructure:"policy"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Configurations []ConfigurationEntry `mapstructure:"configurations"`
}

// SolanaConfig holds Solana-specific configuration
type SolanaConfig struct {
	RPC        string `mapstructure:"rpc"`
	Network    string `mapstructure:"network"`
	Timeout    int    `mapstructure:"timeout"` // in seconds
	Commitment string `mapstructure:"commitment"`
}

// ProgramConfig identifies the program owning the badge namespace
type ProgramConfig struct {
	ID string `mapstructure:"id"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// DatabaseConfig selects and configures the badge storage backend
type DatabaseConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	MongoDB  MongoDBConfig  `mapstructure:"mongodb"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in seconds
}

type MySQLConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in seconds
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type MongoDBConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	MinPoolSize    uint64 `mapstructure:"min_pool_size"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // in seconds
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// PolicyConfig holds the trusted mint allow-list
type PolicyConfig struct {
	AllowList     []string `mapstructure:"allow_list"`
	AllowListFile string   `mapstructure:"allow_list_file"`
}

// MetricsConfig selects the metrics backend
type MetricsConfig struct {
	Backend       string `mapstructure:"backend"` // none, log or prometheus
	ListenAddress string `mapstructure:"listen_address"`
}

// ConfigurationEntry describes a protocol configuration known to the CLI
type ConfigurationEntry struct {
	ID                  string `mapstructure:"id"`
	TokenBadgeAuthority string `mapstructure:"token_badge_authority"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Solana: SolanaConfig{
			RPC:        "",
			Network:    "devnet",
			Timeout:    30,
			Commitment: "confirmed",
		},
		Program: ProgramConfig{
			ID: DefaultProgramID,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "tokengate.db",
			},
			Postgres: PostgresConfig{
				Host:         "localhost",
				Port:         5432,
				SSLMode:      "disable",
				MaxOpenConns: 10,
				MaxIdleConns: 2,
			},
			MySQL: MySQLConfig{
				Host:         "localhost",
				Port:         3306,
				MaxOpenConns: 10,
				MaxIdleConns: 2,
			},
			MongoDB: MongoDBConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "tokengate",
				MaxPoolSize:    10,
				ConnectTimeout: 10,
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "tokengate:account:",
			},
		},
		Metrics: MetricsConfig{
			Backend:       "log",
			ListenAddress: ":9464",
		},
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".tokengate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	// Environment variables
	v.SetEnvPrefix("TOKENGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that keys parse and the database type is known
func (c *Config) Validate() error {
	if _, err := c.ProgramID(); err != nil {
		return err
	}

	switch c.Database.Type {
	case "memory", "sqlite", "mysql", "postgres", "mongodb", "redis":
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}

	for _, entry := range c.Policy.AllowList {
		if _, err := solana.PublicKeyFromBase58(entry); err != nil {
			return fmt.Errorf("invalid allow-list mint %q: %w", entry, err)
		}
	}

	for _, entry := range c.Configurations {
		if _, err := solana.PublicKeyFromBase58(entry.ID); err != nil {
			return fmt.Errorf("invalid configuration id %q: %w", entry.ID, err)
		}
		if _, err := solana.PublicKeyFromBase58(entry.TokenBadgeAuthority); err != nil {
			return fmt.Errorf("invalid token badge authority for %s: %w", entry.ID, err)
		}
	}

	return nil
}

// ProgramID parses the configured program id
func (c *Config) ProgramID() (solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(c.Program.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", c.Program.ID, err)
	}
	return id, nil
}

// FindConfiguration returns the configuration entry with the given id
func (c *Config) FindConfiguration(id string) (*ConfigurationEntry, bool) {
	for i := range c.Configurations {
		if c.Configurations[i].ID == id {
			return &c.Configurations[i], true
		}
	}
	return nil, false
}

// GetRPCEndpoint returns the RPC endpoint for the configured network
func (c *SolanaConfig) GetRPCEndpoint() string {
	if c.RPC != "" {
		return c.RPC
	}

	switch c.Network {
	case "mainnet", "mainnet-beta":
		return "https://api.mainnet-beta.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	case "localnet", "localhost":
		return "http://localhost:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}
