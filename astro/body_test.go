package astro

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBody(t *testing.T) {
	tests := []struct {
		in   string
		want Body
	}{
		{"Sun", Sun},
		{"sun", Sun},
		{"MOON", Moon},
		{"TrueNode", TrueNode},
		{"true_node", TrueNode},
		{"mean_node", MeanNode},
		{" pluto ", Pluto},
	}
	for _, tt := range tests {
		got, err := ParseBody(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseBodyUnknown(t *testing.T) {
	_, err := ParseBody("Vulcan")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBody))
}

func TestBodyIDRoundTrip(t *testing.T) {
	for _, b := range All() {
		got, ok := FromID(b.ID())
		require.True(t, ok, b)
		assert.Equal(t, b, got)
	}
}

func TestAllBodiesCount(t *testing.T) {
	assert.Len(t, All(), 12)
}
