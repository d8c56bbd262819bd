package pidpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocIsMonotonicAndNonZero(t *testing.T) {
	var p Pool
	first, ok := p.Alloc()
	require.True(t, ok)
	assert.Equal(t, uint16(1), first)

	second, ok := p.Alloc()
	require.True(t, ok)
	assert.Equal(t, uint16(2), second)
}

func TestFreeAllowsReuse(t *testing.T) {
	var p Pool
	pid, _ := p.Alloc()
	alreadyFree := p.Free(pid)
	assert.False(t, alreadyFree)

	reused, ok := p.Alloc()
	require.True(t, ok)
	assert.Equal(t, pid, reused)
}

func TestDoubleFreeIsReported(t *testing.T) {
	var p Pool
	pid, _ := p.Alloc()
	assert.False(t, p.Free(pid))
	assert.True(t, p.Free(pid), "second free of the same pid must be reported")
}

func TestFreeOfNeverAllocatedPidIsReported(t *testing.T) {
	var p Pool
	assert.True(t, p.Free(123))
}

func TestExhaustionReturnsFalse(t *testing.T) {
	var p Pool
	for i := 0; i < 65535; i++ {
		_, ok := p.Alloc()
		require.True(t, ok)
	}
	_, ok := p.Alloc()
	assert.False(t, ok, "all 65535 non-zero pids are held, Alloc must fail")
}

func TestExhaustionRecoversAfterFree(t *testing.T) {
	var p Pool
	var held []uint16
	for i := 0; i < 65535; i++ {
		pid, _ := p.Alloc()
		held = append(held, pid)
	}
	_, ok := p.Alloc()
	require.False(t, ok)

	p.Free(held[0])
	reused, ok := p.Alloc()
	require.True(t, ok)
	assert.Equal(t, held[0], reused)
}

func TestAllocNeverReissuesAHeldPid(t *testing.T) {
	var p Pool
	seen := make(map[uint16]bool)
	for i := 0; i < 1000; i++ {
		pid, ok := p.Alloc()
		require.True(t, ok)
		require.False(t, seen[pid], "pid %d reissued while still held", pid)
		seen[pid] = true
	}
}
