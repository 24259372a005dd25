// Package models contains the persisted domain records and the typed error taxonomy.
package models

import "github.com/google/uuid"

// NewID returns a time-ordered opaque identifier. UUIDv7 sorts by creation
// time, so id ordering doubles as insertion order for pagination tie-breaks.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsValidID reports whether s has the shape of an identifier issued by NewID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func assignID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
