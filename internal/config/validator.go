package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

// ValidationContext names the group of commands being validated for. Each
// group checks only the settings it reads.
type ValidationContext string

const (
	ValidationContextGraph ValidationContext = "graph" // load, schema, query and admin commands
	ValidationContextETL   ValidationContext = "etl"   // download, convert and split
	ValidationContextAll   ValidationContext = "all"
)

// MaxHops is the upper bound of the hop range accepted for path queries
const MaxHops = 50

// ValidationResult collects problems. Errors block the command; warnings
// name a setting that will be replaced by its default.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// Error lists errors then warnings, one per line. Empty when valid.
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid configuration (%d problems):\n", len(vr.Errors))
	for _, e := range vr.Errors {
		fmt.Fprintf(&sb, "  - %s\n", e)
	}
	for _, w := range vr.Warnings {
		fmt.Fprintf(&sb, "  ! %s\n", w)
	}
	return sb.String()
}

// Validate checks the settings used by ctx
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{}
	if ctx == ValidationContextGraph || ctx == ValidationContextAll {
		c.validateNeo4j(result)
		c.validateLoad(result)
		c.validateQuery(result)
	}
	if ctx == ValidationContextETL || ctx == ValidationContextAll {
		c.validateETL(result)
	}
	return result
}

// Require validates for ctx and returns a config error when anything is missing
func (c *Config) Require(ctx ValidationContext) error {
	if result := c.Validate(ctx); result.HasErrors() {
		return errors.ConfigErrorf("%s", result.Error())
	}
	return nil
}

func (c *Config) validateNeo4j(result *ValidationResult) {
	if c.Neo4j.URI == "" {
		result.AddError("NEO4J_URI (or NEO4J_HOST) is not set")
	} else if u, err := url.Parse(c.Neo4j.URI); err != nil {
		result.AddError("NEO4J_URI %q does not parse: %v", c.Neo4j.URI, err)
	} else {
		switch u.Scheme {
		case "bolt", "bolt+s", "bolt+ssc", "neo4j", "neo4j+s", "neo4j+ssc":
		default:
			result.AddError("NEO4J_URI scheme %q is not a bolt or neo4j scheme", u.Scheme)
		}
	}

	if c.Neo4j.User == "" {
		result.AddError("NEO4J_USER is not set")
	}
	if c.Neo4j.Password == "" {
		result.AddError("NEO4J_PASSWORD (or NEO4J_PASS) is required but not set. Set it via environment variable or .env file.")
	}
	if c.Neo4j.Database == "" {
		result.AddWarning("NEO4J_DATABASE is not set, will use the server default")
	}
}

func (c *Config) validateETL(result *ValidationResult) {
	if c.ETL.RawDir == "" {
		result.AddError("ACTORGRAPH_RAW_DIR is required but not set")
	}
	if c.ETL.BatchDir == "" {
		result.AddError("ACTORGRAPH_BATCH_DIR is required but not set")
	}
	if c.ETL.DatasetURL != "" {
		if _, err := url.Parse(c.ETL.DatasetURL); err != nil {
			result.AddError("ACTORGRAPH_DATASET_URL is invalid: %v", err)
		}
	}
	if c.ETL.SplitLines < 0 {
		result.AddError("ACTORGRAPH_SPLIT_LINES must not be negative, got %d", c.ETL.SplitLines)
	}
	if c.ETL.DedupWindow <= 0 {
		result.AddWarning("etl.dedup_window is not positive, line dedup will be disabled")
	}
}

func (c *Config) validateLoad(result *ValidationResult) {
	if c.Load.Parallelism < 1 {
		result.AddWarning("ACTORGRAPH_PARALLELISM must be at least 1, got %d, will use 1", c.Load.Parallelism)
	}
	if c.Load.WriteRate < 0 {
		result.AddError("ACTORGRAPH_WRITE_RATE must not be negative, got %.2f", c.Load.WriteRate)
	}
	for name, size := range map[string]int{
		"production_batch": c.Load.ProductionBatch,
		"actor_batch":      c.Load.ActorBatch,
		"credit_batch":     c.Load.CreditBatch,
		"episode_batch":    c.Load.EpisodeBatch,
	} {
		if size <= 0 {
			result.AddWarning("load.%s is not positive, will use default", name)
		}
	}
}

func (c *Config) validateQuery(result *ValidationResult) {
	if c.Query.DefaultHops < 1 || c.Query.DefaultHops > MaxHops {
		result.AddWarning("ACTORGRAPH_DEFAULT_HOPS must be within [1,%d], got %d, will use 20", MaxHops, c.Query.DefaultHops)
	}
}
