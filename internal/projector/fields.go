// Package projector pushes dispatched gateway events to a downstream
// consumer over a message broker. Domain types opt in by flattening
// themselves into ordered key/value string pairs, which keeps the broker
// payload independent of any one type's JSON shape.
package projector

import (
	"strconv"
	"strings"

	"github.com/shardkit/gateway/gateway"
)

// FieldVisitor receives one flattened field. Visit order is significant:
// consumers see fields in exactly the order the type emits them.
type FieldVisitor func(key, value string)

// Projectable is implemented by any type that can flatten itself for
// projection. Implementations call visit once per field; optional fields
// are skipped entirely when absent rather than emitted with a sentinel.
type Projectable interface {
	ProjectFields(visit FieldVisitor)
}

// VisitString emits a required string field.
func VisitString(visit FieldVisitor, key, value string) {
	visit(key, value)
}

// VisitOptString emits a string field only when present.
func VisitOptString(visit FieldVisitor, key string, value *string) {
	if value == nil {
		return
	}
	visit(key, *value)
}

// VisitUint emits an unsigned integer field in decimal.
func VisitUint(visit FieldVisitor, key string, value uint64) {
	visit(key, strconv.FormatUint(value, 10))
}

// VisitInt emits a signed integer field in decimal.
func VisitInt(visit FieldVisitor, key string, value int64) {
	visit(key, strconv.FormatInt(value, 10))
}

// VisitBool emits a boolean field as "true" or "false".
func VisitBool(visit FieldVisitor, key string, value bool) {
	visit(key, strconv.FormatBool(value))
}

// VisitSnowflake emits a single ID in its decimal wire form.
func VisitSnowflake(visit FieldVisitor, key string, id gateway.Snowflake) {
	visit(key, id.String())
}

// VisitOptSnowflake emits an ID field only when present.
func VisitOptSnowflake(visit FieldVisitor, key string, id *gateway.Snowflake) {
	if id == nil {
		return
	}
	visit(key, id.String())
}

// VisitSnowflakes emits a list of IDs as comma-joined decimal strings. An
// empty list is skipped, matching the optional-field convention.
func VisitSnowflakes(visit FieldVisitor, key string, ids []gateway.Snowflake) {
	if len(ids) == 0 {
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	visit(key, strings.Join(parts, ","))
}

// Flatten collects a Projectable's fields into parallel key and value
// slices, preserving visit order.
func Flatten(p Projectable) (keys, values []string) {
	p.ProjectFields(func(key, value string) {
		keys = append(keys, key)
		values = append(values, value)
	})
	return keys, values
}
