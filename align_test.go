package kernel

import (
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/cpu"
)

// Test_sizeOfCacheLine verifies sizeOfCacheLine is large enough to cover the
// host's real cache line size and is a clean multiple of it, matching the
// teacher's align_test.go pattern.
func Test_sizeOfCacheLine(t *testing.T) {
	actual := unsafe.Sizeof(cpu.CacheLinePad{})
	assert.GreaterOrEqual(t, uintptr(sizeOfCacheLine), actual)
	assert.Zero(t, sizeOfCacheLine%actual)
}

func TestSizeOfAtomicUint64(t *testing.T) {
	assert.Equal(t, uintptr(sizeOfAtomicUint64), unsafe.Sizeof(atomic.Uint64{}))
}
