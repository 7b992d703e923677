package graph

import (
	"fmt"
	"regexp"

	"github.com/rohankatakam/actorgraph/internal/config"
	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/models"
)

// Labels, property keys, schema names and var-length bounds cannot be
// query parameters. Everything this file renders into query text is either
// validated against identifierPattern or a range-checked integer; values
// always travel as parameters.

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// SchemaRule is one uniqueness constraint or property index
type SchemaRule struct {
	Name     string
	Label    string
	Property string
}

// Constraints are the uniqueness rules on entity keys
var Constraints = []SchemaRule{
	{Name: "person_name_id", Label: models.LabelPerson, Property: "name_id"},
	{Name: "actor_name_id", Label: models.LabelActor, Property: "name_id"},
	{Name: "production_title_id", Label: models.LabelProduction, Property: "title_id"},
	{Name: "movie_title_id", Label: models.LabelMovie, Property: "title_id"},
	{Name: "episode_title_id", Label: models.LabelEpisode, Property: "title_id"},
	{Name: "series_title_id", Label: models.LabelSeries, Property: "title_id"},
}

// Indexes speed up name and title lookups
var Indexes = []SchemaRule{
	{Name: "person_name", Label: models.LabelPerson, Property: "name"},
	{Name: "actor_name", Label: models.LabelActor, Property: "name"},
	{Name: "production_title", Label: models.LabelProduction, Property: "title"},
	{Name: "movie_title", Label: models.LabelMovie, Property: "title"},
	{Name: "episode_title", Label: models.LabelEpisode, Property: "title"},
	{Name: "series_title", Label: models.LabelSeries, Property: "title"},
}

func (r SchemaRule) validate() error {
	for _, s := range []string{r.Name, r.Label, r.Property} {
		if !isValidIdentifier(s) {
			return errors.ValidationErrorf("invalid schema identifier %q (must be alphanumeric + underscore)", s)
		}
	}
	return nil
}

// SchemaBuilder renders schema statements. There is deliberately no
// IF NOT EXISTS: creating a rule that already exists must fail.
type SchemaBuilder struct{}

// CreateConstraint renders a uniqueness constraint
func (SchemaBuilder) CreateConstraint(r SchemaRule) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE CONSTRAINT %s FOR (n:%s) REQUIRE n.%s IS UNIQUE", r.Name, r.Label, r.Property), nil
}

// CreateIndex renders a range index
func (SchemaBuilder) CreateIndex(r SchemaRule) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE INDEX %s FOR (n:%s) ON (n.%s)", r.Name, r.Label, r.Property), nil
}

// DropConstraint renders a constraint drop
func (SchemaBuilder) DropConstraint(r SchemaRule) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	return "DROP CONSTRAINT " + r.Name, nil
}

// DropIndex renders an index drop
func (SchemaBuilder) DropIndex(r SchemaRule) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	return "DROP INDEX " + r.Name, nil
}

// shortestPathQuery renders the credit-chain query. maxHops must already be
// within [1, MaxHops]; it is rendered as a literal because Cypher rejects
// parameters in variable-length bounds.
func shortestPathQuery(maxHops int) (string, error) {
	if maxHops < 1 || maxHops > config.MaxHops {
		return "", errors.ValidationErrorf("hop bound %d outside [1,%d]", maxHops, config.MaxHops)
	}
	return fmt.Sprintf(`
		MATCH (a:Actor {name_id: $actor_id_1})
		MATCH (b:Actor {name_id: $actor_id_2})
		MATCH path = shortestPath((a)-[:ACTED_IN*0..%d]-(b))
		RETURN path
		LIMIT 1`, maxHops), nil
}

// wipeQuery detaches and deletes every node in inner transactions of
// batchSize rows
func wipeQuery(batchSize int) (string, error) {
	if batchSize < 1 {
		return "", errors.ValidationErrorf("wipe batch size must be positive, got %d", batchSize)
	}
	return fmt.Sprintf(`
		MATCH (n)
		CALL { WITH n DETACH DELETE n } IN TRANSACTIONS OF %d ROWS`, batchSize), nil
}
