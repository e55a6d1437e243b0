package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftop-io/perftop/internal/sample"
)

func TestResolveSampling_FrequencyMode(t *testing.T) {
	descs := []*Descriptor{DefaultDescriptor()}

	require.NoError(t, ResolveSampling(descs, 1000, 0))

	assert.True(t, descs[0].Freq)
	assert.Equal(t, uint64(1000), descs[0].SampleFreq)
	assert.Zero(t, descs[0].SamplePeriod)
}

func TestResolveSampling_CountOverridesFrequency(t *testing.T) {
	descs := []*Descriptor{DefaultDescriptor()}

	require.NoError(t, ResolveSampling(descs, 1000, 50000))

	assert.False(t, descs[0].Freq)
	assert.Equal(t, uint64(50000), descs[0].SamplePeriod)
	assert.Zero(t, descs[0].SampleFreq)
}

func TestResolveSampling_ExplicitPeriodWins(t *testing.T) {
	withOwn := &Descriptor{Type: TypeSoftware, Config: SWCPUClock, Name: "cpu-clock", SamplePeriod: 777}
	plain := DefaultDescriptor()

	require.NoError(t, ResolveSampling([]*Descriptor{withOwn, plain}, 1000, 0))

	assert.False(t, withOwn.Freq)
	assert.Equal(t, uint64(777), withOwn.SamplePeriod)
	assert.True(t, plain.Freq)
	assert.Equal(t, uint64(1000), plain.SampleFreq)
}

func TestResolveSampling_BothZeroIsInvalid(t *testing.T) {
	err := ResolveSampling([]*Descriptor{DefaultDescriptor()}, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDeriveSampleTypes_SingleDescriptor(t *testing.T) {
	d := DefaultDescriptor()
	require.NoError(t, ResolveSampling([]*Descriptor{d}, 1000, 0))

	DeriveSampleTypes([]*Descriptor{d})

	assert.Equal(t, sample.FieldIP|sample.FieldTID|sample.FieldPeriod, d.SampleType)
	assert.Zero(t, d.ReadFormat)
}

func TestDeriveSampleTypes_PeriodModeOmitsPeriodField(t *testing.T) {
	d := DefaultDescriptor()
	require.NoError(t, ResolveSampling([]*Descriptor{d}, 0, 4000))

	DeriveSampleTypes([]*Descriptor{d})

	assert.Equal(t, sample.FieldIP|sample.FieldTID, d.SampleType)
}

func TestDeriveSampleTypes_MultipleDescriptorsAddIdentifier(t *testing.T) {
	descs := []*Descriptor{
		DefaultDescriptor(),
		{Type: TypeSoftware, Config: SWPageFaults, Name: "page-faults"},
	}
	require.NoError(t, ResolveSampling(descs, 1000, 0))

	DeriveSampleTypes(descs)

	for _, d := range descs {
		assert.NotZero(t, d.SampleType&sample.FieldID, "%s should carry an identifier", d)
		assert.NotZero(t, d.ReadFormat&sample.ReadFormatID, "%s should read back an id", d)
	}
}

func TestFallbackPreservesRateSettings(t *testing.T) {
	d := DefaultDescriptor()
	require.NoError(t, ResolveSampling([]*Descriptor{d}, 1000, 0))

	sub := d.fallback()

	assert.Equal(t, TypeSoftware, sub.Type)
	assert.Equal(t, SWCPUClock, sub.Config)
	assert.Equal(t, d.Freq, sub.Freq)
	assert.Equal(t, d.SampleFreq, sub.SampleFreq)
	assert.Equal(t, d.SamplePeriod, sub.SamplePeriod)
	// The original descriptor is untouched.
	assert.Equal(t, TypeHardware, d.Type)
}
