package pqc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModule_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     SecurityLevel
		publicKey int
		cipher    int
	}{
		{Level1, 800, 768},
		{Level3, 1184, 1088},
		{Level5, 1568, 1568},
	}

	for _, tt := range tests {
		m, err := NewModule(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.level, m.Level())

		pk, ct, ss, _ := m.Sizes()
		assert.Equal(t, tt.publicKey, pk)
		assert.Equal(t, tt.cipher, ct)
		assert.Equal(t, 32, ss)
	}

	_, err := NewModule(SecurityLevel(2))
	assert.True(t, errors.Is(err, ErrUnsupportedLevel))
}

func TestModule_KEMRoundTrip(t *testing.T) {
	t.Parallel()

	for _, level := range []SecurityLevel{Level1, Level3, Level5} {
		m, err := NewModule(level)
		require.NoError(t, err)

		public, private, err := m.GenerateKEMKeypair()
		require.NoError(t, err)

		ct, ss, err := m.Encapsulate(public)
		require.NoError(t, err)

		recovered, err := m.Decapsulate(private, ct)
		require.NoError(t, err)
		assert.Equal(t, ss, recovered, "level %d", level)

		_, err = m.Decapsulate(private, ct[:len(ct)-1])
		assert.Error(t, err)
		_, _, err = m.Encapsulate(public[:10])
		assert.Error(t, err)
	}
}

func TestModule_SignVerify(t *testing.T) {
	t.Parallel()

	message := []byte("Spiralverse-AetherMoore PQC Test")
	for _, level := range []SecurityLevel{Level1, Level3, Level5} {
		m, err := NewModule(level)
		require.NoError(t, err)

		public, private, err := m.GenerateSigKeypair()
		require.NoError(t, err)

		sig, err := m.Sign(private, message)
		require.NoError(t, err)
		_, _, _, sigSize := m.Sizes()
		assert.Len(t, sig, sigSize)

		assert.True(t, m.Verify(public, message, sig), "level %d", level)
		assert.False(t, m.Verify(public, []byte("tampered"), sig))
		assert.False(t, m.Verify(public, message, sig[:len(sig)-1]))
		assert.False(t, m.Verify(public[:5], message, sig))

		_, err = m.Sign(private[:5], message)
		assert.Error(t, err)
	}
}

func TestHarmonicScaling(t *testing.T) {
	t.Parallel()

	h := NewHarmonicScaling(DefaultHarmonicD, DefaultHarmonicR)
	assert.InDelta(t, 1.6439345666815615, h.Compute(), 1e-12)
	assert.Equal(t, h.Compute(), h.Compute())
	assert.InDelta(t, 256*(1+1.6439345666815615/1000), h.ModulateEntropy(256), 1e-9)

	assert.Equal(t, 1.0, NewHarmonicScaling(2, 1).Compute())
	assert.Zero(t, NewHarmonicScaling(2, 0).Compute())
	assert.Equal(t, 42.0, NewHarmonicScaling(2, 0).ModulateEntropy(42))

	m, err := NewModule(Level5)
	require.NoError(t, err)
	assert.InDelta(t, 1.6439345666815615, m.HarmonicCoefficient(), 1e-12)
}
