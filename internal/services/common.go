package services

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateReference builds a human-readable reference such as
// TXN-20240610090000-0042 from prefix and the UTC time at.
func GenerateReference(prefix string, at time.Time) string {
	suffix := fmt.Sprintf("%04d", rand.IntN(10000))
	return fmt.Sprintf("%s%s-%s", prefix, at.UTC().Format("20060102150405"), suffix)
}
