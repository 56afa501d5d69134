// Package gen provides utility functions for generating values.
package gen

import (
	"github.com/google/uuid"
)

// ItemID generates a stable UUIDv5 identity for a download item from its URL.
// The same URL always maps to the same ID, which is what makes URL-keyed
// dedup and removal work.
func ItemID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}
