package redis

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

const (
	// KeyPrefixState is the prefix of the per-route state hash.
	KeyPrefixState = "seatwatch:state:"
	// KeyPrefixLock is the prefix of the per-route cycle lock.
	KeyPrefixLock = "seatwatch:lock:"

	// FieldMeta holds version, route and last check time.
	FieldMeta = "meta"
	// FieldPrefixDate prefixes the snapshot field of each date.
	FieldPrefixDate = "date:"
)

// StateKey returns the hash holding the state of route.
func StateKey(route string) string {
	return KeyPrefixState + route
}

// LockKey returns the key guarding cycles of route.
func LockKey(route string) string {
	return KeyPrefixLock + route
}

// DateField returns the hash field of one date's snapshot.
func DateField(date civil.Date) string {
	return FieldPrefixDate + date.String()
}

// ExtractDate parses the date out of a snapshot field.
func ExtractDate(field string) (civil.Date, error) {
	raw, ok := strings.CutPrefix(field, FieldPrefixDate)
	if !ok {
		return civil.Date{}, fmt.Errorf("invalid date field: %s", field)
	}
	return civil.ParseDate(raw)
}
