package util

import (
	"fmt"
	"time"
)

// GenerateTimestampWithPrefix builds an identifier from a prefix and the
// current nanosecond timestamp.
func GenerateTimestampWithPrefix(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}
