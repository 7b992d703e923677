package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	Neo4j   Neo4jConfig   `mapstructure:"neo4j" yaml:"neo4j"`
	ETL     ETLConfig     `mapstructure:"etl" yaml:"etl"`
	Load    LoadConfig    `mapstructure:"load" yaml:"load"`
	Query   QueryConfig   `mapstructure:"query" yaml:"query"`
	Ledger  LedgerConfig  `mapstructure:"ledger" yaml:"ledger"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

type ETLConfig struct {
	RawDir      string `mapstructure:"raw_dir" yaml:"raw_dir"`
	BatchDir    string `mapstructure:"batch_dir" yaml:"batch_dir"`
	DatasetURL  string `mapstructure:"dataset_url" yaml:"dataset_url"`
	SplitLines  int    `mapstructure:"split_lines" yaml:"split_lines"` // rows per chunk file, 0 = no split
	DedupWindow int    `mapstructure:"dedup_window" yaml:"dedup_window"`
}

type LoadConfig struct {
	Parallelism     int     `mapstructure:"parallelism" yaml:"parallelism"` // concurrent chunk files per stage
	WriteRate       float64 `mapstructure:"write_rate" yaml:"write_rate"`   // batches/second, 0 = unlimited
	ProductionBatch int     `mapstructure:"production_batch" yaml:"production_batch"`
	ActorBatch      int     `mapstructure:"actor_batch" yaml:"actor_batch"`
	CreditBatch     int     `mapstructure:"credit_batch" yaml:"credit_batch"`
	EpisodeBatch    int     `mapstructure:"episode_batch" yaml:"episode_batch"`
}

type QueryConfig struct {
	DefaultHops int `mapstructure:"default_hops" yaml:"default_hops"`
}

type LedgerConfig struct {
	Path        string `mapstructure:"path" yaml:"path"` // empty disables the ledger
	SampleLimit int    `mapstructure:"sample_limit" yaml:"sample_limit"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Dir   string `mapstructure:"dir" yaml:"dir"` // empty = console only
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		ETL: ETLConfig{
			RawDir:      "data/raw",
			BatchDir:    "data/batch",
			DatasetURL:  "https://datasets.imdbws.com/",
			SplitLines:  500000,
			DedupWindow: 4_000_000,
		},
		Load: LoadConfig{
			Parallelism:     4,
			ProductionBatch: 1000,
			ActorBatch:      1000,
			CreditBatch:     500,
			EpisodeBatch:    500,
		},
		Query: QueryConfig{
			DefaultHops: 20,
		},
		Ledger: LedgerConfig{
			Path:        filepath.Join(".actorgraph", "ledger.db"),
			SampleLimit: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML config (explicit path, or .actorgraph/config.yaml,
// ./config.yaml, ~/.actorgraph/config.yaml) over the defaults, then applies
// environment overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".actorgraph")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".actorgraph"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal only overwrites keys present in the file; defaults survive.
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overrides variables that are already set, so the first file wins.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".actorgraph", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// NEO4J_HOST and NEO4J_PASS are the names the dataset tooling has always used
	cfg.Neo4j.URI = firstNonEmpty(os.Getenv("NEO4J_URI"), os.Getenv("NEO4J_HOST"), cfg.Neo4j.URI)
	cfg.Neo4j.User = GetString("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = firstNonEmpty(os.Getenv("NEO4J_PASSWORD"), os.Getenv("NEO4J_PASS"), cfg.Neo4j.Password)
	cfg.Neo4j.Database = GetString("NEO4J_DATABASE", cfg.Neo4j.Database)

	cfg.ETL.RawDir = expandPath(GetString("ACTORGRAPH_RAW_DIR", cfg.ETL.RawDir))
	cfg.ETL.BatchDir = expandPath(GetString("ACTORGRAPH_BATCH_DIR", cfg.ETL.BatchDir))
	cfg.ETL.DatasetURL = GetString("ACTORGRAPH_DATASET_URL", cfg.ETL.DatasetURL)
	cfg.ETL.SplitLines = GetInt("ACTORGRAPH_SPLIT_LINES", cfg.ETL.SplitLines)

	cfg.Load.Parallelism = GetInt("ACTORGRAPH_PARALLELISM", cfg.Load.Parallelism)
	cfg.Load.WriteRate = GetFloat("ACTORGRAPH_WRITE_RATE", cfg.Load.WriteRate)

	cfg.Query.DefaultHops = GetInt("ACTORGRAPH_DEFAULT_HOPS", cfg.Query.DefaultHops)

	cfg.Ledger.Path = expandPath(GetString("ACTORGRAPH_LEDGER_PATH", cfg.Ledger.Path))

	cfg.Logging.Level = GetString("ACTORGRAPH_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Dir = expandPath(GetString("ACTORGRAPH_LOG_DIR", cfg.Logging.Dir))
	cfg.Logging.JSON = GetBool("ACTORGRAPH_LOG_JSON", cfg.Logging.JSON)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save writes the configuration as YAML, without the password.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	neo := c.Neo4j
	neo.Password = ""
	v.Set("neo4j", neo)
	v.Set("etl", c.ETL)
	v.Set("load", c.Load)
	v.Set("query", c.Query)
	v.Set("ledger", c.Ledger)
	v.Set("logging", c.Logging)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
