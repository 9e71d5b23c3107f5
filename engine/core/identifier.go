package core

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var nextResourceID atomic.Uint64

// AcquireResourceID hands out process-unique identifiers for GPU
// resources. Zero is never returned, so it can mean "no resource".
func AcquireResourceID() uint64 {
	return nextResourceID.Add(1)
}

// GenerateName builds a unique debug name for anonymous assets.
func GenerateName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}
