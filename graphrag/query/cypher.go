package query

import (
	"fmt"
	"strings"

	"github.com/graphmind/orchestrator/idregistry"
	"github.com/graphmind/orchestrator/orcherr"
)

// BuildMatch generates a MATCH clause for a node with the given label and
// alias. Neo4j has no parameter syntax for labels, so nodeType and alias
// are validated against idregistry's identifier grammar instead of being
// interpolated as-is; callers that accept either from a tool-use argument
// (as agentpool's find_nodes tool does) get the same rejection a
// malformed database name would get at the registry.
//
// Example:
//
//	BuildMatch("Person", "n") // Returns: "MATCH (n:Person)"
func BuildMatch(nodeType string, alias string) (string, error) {
	if !idregistry.ValidIdentifier(nodeType) {
		return "", orcherr.New(orcherr.CodeInvalidIdentifier, "invalid node label: "+nodeType).WithComponent("query")
	}
	if !idregistry.ValidIdentifier(alias) {
		return "", orcherr.New(orcherr.CodeInvalidIdentifier, "invalid alias: "+alias).WithComponent("query")
	}
	return fmt.Sprintf("MATCH (%s:%s)", alias, nodeType), nil
}

// BuildWhere generates a WHERE clause from predicates with parameterized
// values. Returns the WHERE clause string and a map of parameter names to
// values. Parameter placeholders are named $p0, $p1, etc.; every property
// name referenced by a predicate is validated against idregistry's
// identifier grammar before being written into the clause, since a
// property name (unlike a value) cannot be parameterized and would
// otherwise let a caller smuggle arbitrary Cypher through Predicate.Field.
//
// Returns empty string and nil params if predicates is empty or nil.
//
// Example:
//
//	predicates := []Predicate{
//	    {Field: "name", Op: Eq, Value: "Acme Corp"},
//	    {Field: "founded", Op: Gt, Value: 1999},
//	}
//	where, params, err := BuildWhere(predicates, "n")
//	// Returns: "WHERE n.name = $p0 AND n.founded > $p1"
//	// params: {"p0": "Acme Corp", "p1": 1999}
func BuildWhere(predicates []Predicate, alias string) (string, map[string]any, error) {
	if len(predicates) == 0 {
		return "", nil, nil
	}
	if !idregistry.ValidIdentifier(alias) {
		return "", nil, orcherr.New(orcherr.CodeInvalidIdentifier, "invalid alias: "+alias).WithComponent("query")
	}

	params := make(map[string]any)
	var conditions []string

	for i, pred := range predicates {
		if !idregistry.ValidIdentifier(pred.Field) {
			return "", nil, orcherr.New(orcherr.CodeInvalidIdentifier, "invalid property name: "+pred.Field).WithComponent("query")
		}
		paramName := fmt.Sprintf("p%d", i)
		conditions = append(conditions, buildCondition(pred, alias, paramName))

		if requiresValue(pred.Op) {
			params[paramName] = pred.Value
		}
	}

	return "WHERE " + strings.Join(conditions, " AND "), params, nil
}

// buildCondition constructs a single WHERE condition for a predicate.
// pred.Field has already been validated by BuildWhere's caller.
func buildCondition(pred Predicate, alias string, paramName string) string {
	fieldRef := fmt.Sprintf("%s.%s", alias, pred.Field)

	switch pred.Op {
	case Eq:
		return fmt.Sprintf("%s = $%s", fieldRef, paramName)
	case Neq:
		return fmt.Sprintf("%s <> $%s", fieldRef, paramName)
	case Lt:
		return fmt.Sprintf("%s < $%s", fieldRef, paramName)
	case Lte:
		return fmt.Sprintf("%s <= $%s", fieldRef, paramName)
	case Gt:
		return fmt.Sprintf("%s > $%s", fieldRef, paramName)
	case Gte:
		return fmt.Sprintf("%s >= $%s", fieldRef, paramName)
	case Contains:
		return fmt.Sprintf("%s CONTAINS $%s", fieldRef, paramName)
	case StartsWith:
		return fmt.Sprintf("%s STARTS WITH $%s", fieldRef, paramName)
	case EndsWith:
		return fmt.Sprintf("%s ENDS WITH $%s", fieldRef, paramName)
	case In:
		return fmt.Sprintf("%s IN $%s", fieldRef, paramName)
	case IsNull:
		return fmt.Sprintf("%s IS NULL", fieldRef)
	case IsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", fieldRef)
	default:
		return fmt.Sprintf("%s = $%s", fieldRef, paramName)
	}
}

// requiresValue returns true if the operation requires a parameter value.
// IsNull and IsNotNull operations do not require values.
func requiresValue(op Op) bool {
	return op != IsNull && op != IsNotNull
}

// BuildReturn generates a RETURN clause with the specified alias and
// optional property projection. If fields is empty, returns the entire
// node. Each field name is validated against idregistry's identifier
// grammar for the same reason BuildWhere validates Predicate.Field.
//
// Examples:
//
//	BuildReturn("n", nil)              // Returns: "RETURN n"
//	BuildReturn("n", []string{"name"}) // Returns: "RETURN n.name"
func BuildReturn(alias string, fields []string) (string, error) {
	if !idregistry.ValidIdentifier(alias) {
		return "", orcherr.New(orcherr.CodeInvalidIdentifier, "invalid alias: "+alias).WithComponent("query")
	}
	if len(fields) == 0 {
		return fmt.Sprintf("RETURN %s", alias), nil
	}

	fieldRefs := make([]string, 0, len(fields))
	for _, field := range fields {
		if !idregistry.ValidIdentifier(field) {
			return "", orcherr.New(orcherr.CodeInvalidIdentifier, "invalid property name: "+field).WithComponent("query")
		}
		fieldRefs = append(fieldRefs, fmt.Sprintf("%s.%s", alias, field))
	}

	return "RETURN " + strings.Join(fieldRefs, ", "), nil
}

// BuildTraversal generates a Cypher pattern for traversing a relationship
// between two resolved entities. The direction determines the arrow
// direction in the pattern:
//   - "out": (fromAlias)-[:REL]->(toAlias:TargetType)
//   - "in":  (fromAlias)<-[:REL]-(toAlias:TargetType)
//   - "both": (fromAlias)-[:REL]-(toAlias:TargetType)
//
// Example:
//
//	t := Traversal{
//	    Relationship: "WORKS_FOR",
//	    TargetType: "Organization",
//	    Direction: "out",
//	}
//	BuildTraversal(t, "p", "o")
//	// Returns: "(p)-[:WORKS_FOR]->(o:Organization)"
func BuildTraversal(t Traversal, fromAlias string, toAlias string) (string, error) {
	for _, id := range []string{t.Relationship, t.TargetType, fromAlias, toAlias} {
		if !idregistry.ValidIdentifier(id) {
			return "", orcherr.New(orcherr.CodeInvalidIdentifier, "invalid traversal identifier: "+id).WithComponent("query")
		}
	}

	rel := fmt.Sprintf("[:%s]", t.Relationship)
	target := fmt.Sprintf("%s:%s", toAlias, t.TargetType)

	switch t.Direction {
	case "out":
		return fmt.Sprintf("(%s)-%s->(%s)", fromAlias, rel, target), nil
	case "in":
		return fmt.Sprintf("(%s)<-%s-(%s)", fromAlias, rel, target), nil
	case "both":
		return fmt.Sprintf("(%s)-%s-(%s)", fromAlias, rel, target), nil
	default:
		return fmt.Sprintf("(%s)-%s->(%s)", fromAlias, rel, target), nil
	}
}
