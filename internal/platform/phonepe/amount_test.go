package phonepe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	v, err := ToMinorUnits(499, 100)
	require.NoError(t, err)
	require.Equal(t, int64(49900), v)

	_, err = ToMinorUnits(0, 100)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ToMinorUnits(math.MaxInt64/10, 100)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFromMinorUnits(t *testing.T) {
	require.Equal(t, "499", FromMinorUnits(49900, 100).String())
	require.Equal(t, "4.99", FromMinorUnits(499, 100).String())
}
