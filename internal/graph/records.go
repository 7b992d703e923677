package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// optInt unwraps an optional integer into a query parameter. A typed nil
// pointer is not a valid parameter value, so absent becomes untyped nil.
func optInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func optString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// RecordInt reads an integer column, nil and missing as absent
func RecordInt(rec *neo4j.Record, key string) (*int64, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil, ok
	}
	n, ok := v.(int64)
	if !ok {
		return nil, false
	}
	return &n, true
}

// RecordCount reads a count column, 0 when absent
func RecordCount(rec *neo4j.Record, key string) int64 {
	n, _ := RecordInt(rec, key)
	if n == nil {
		return 0
	}
	return *n
}

// RecordString reads a string column, "" when absent
func RecordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// PropInt reads an optional integer property of a node or relationship
func PropInt(props map[string]any, key string) *int64 {
	v, ok := props[key]
	if !ok || v == nil {
		return nil
	}
	n, ok := v.(int64)
	if !ok {
		return nil
	}
	return &n
}

// PropString reads a string property, "" when absent
func PropString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

// PropOptString reads an optional string property
func PropOptString(props map[string]any, key string) *string {
	s, ok := props[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// HasLabel reports whether node carries label
func HasLabel(node dbtype.Node, label string) bool {
	for _, l := range node.Labels {
		if l == label {
			return true
		}
	}
	return false
}
