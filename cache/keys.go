package cache

import "strings"

// Key segments shared by every entity namespace.
const (
	segmentID      = "id"
	segmentList    = "list"
	segmentCount   = "count"
	segmentQueries = "queries"
)

// EntityKey returns the single-entity key "{name}:id:{id}", followed by any variant segments.
func EntityKey(name, id string, variant ...string) string {
	parts := append([]string{name, segmentID, id}, variant...)
	return strings.Join(parts, ":")
}

// QuerySetKey returns the relation index set "{name}:{id}:queries" holding every cache
// key whose value depends on the entity.
func QuerySetKey(name, id string) string {
	return name + ":" + id + ":" + segmentQueries
}

// ListMethod is the key prefix handed to a KeySerializer for list queries.
func ListMethod(name string) string {
	return name + ":" + segmentList
}

// CountMethod is the key prefix handed to a KeySerializer for count queries.
func CountMethod(name string) string {
	return name + ":" + segmentCount
}

// ListPattern matches every cached list query of a namespace.
func ListPattern(name string) string {
	return ListMethod(name) + ":*"
}

// CountPattern matches every cached count query of a namespace.
func CountPattern(name string) string {
	return CountMethod(name) + ":*"
}
