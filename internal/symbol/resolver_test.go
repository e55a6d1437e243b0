package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftop-io/perftop/internal/sys/proc"
	"github.com/perftop-io/perftop/internal/testutil"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	return newResolver([]proc.KernelSymbol{
		{Address: 0x3000, Name: "vfs_read"},
		{Address: 0x1000, Name: "schedule"},
		{Address: 0x2000, Name: "default_idle"},
		{Address: 0x4000, Name: "_text"},
		{Address: 0x5000, Name: "nf_hook_slow", Module: "nf_tables"},
	}, testutil.NewTestLogger(t))
}

func TestResolve_ExactAndContainedAddresses(t *testing.T) {
	r := testResolver(t)

	sym, ok := r.Resolve(0x1000)
	require.True(t, ok)
	assert.Equal(t, "schedule", sym.Name)

	// An address inside a symbol resolves to the nearest lower start.
	sym, ok = r.Resolve(0x1abc)
	require.True(t, ok)
	assert.Equal(t, "schedule", sym.Name)
}

func TestResolve_BelowFirstSymbolMisses(t *testing.T) {
	r := testResolver(t)

	_, ok := r.Resolve(0x10)
	assert.False(t, ok)
}

func TestResolve_IgnorableSymbolIsMarked(t *testing.T) {
	r := testResolver(t)

	sym, ok := r.Resolve(0x2000)
	require.True(t, ok)
	assert.Equal(t, "default_idle", sym.Name)
	assert.True(t, sym.Ignore)
}

func TestResolve_RejectedSymbolsAreNotInTable(t *testing.T) {
	r := testResolver(t)

	// _text was rejected at load; its range falls through to the previous
	// admitted symbol.
	sym, ok := r.Resolve(0x4800)
	require.True(t, ok)
	assert.Equal(t, "vfs_read", sym.Name)

	assert.Equal(t, 4, r.SymbolCount())
}

func TestResolve_ModuleSymbol(t *testing.T) {
	r := testResolver(t)

	sym, ok := r.Resolve(0x5010)
	require.True(t, ok)
	assert.Equal(t, "nf_hook_slow", sym.Name)
	assert.Equal(t, "nf_tables", sym.Module)
}

func TestResolve_CacheReturnsSameAnswer(t *testing.T) {
	r := testResolver(t)

	first, ok := r.Resolve(0x3004)
	require.True(t, ok)
	second, ok := r.Resolve(0x3004)
	require.True(t, ok)
	assert.Equal(t, first, second)
}
