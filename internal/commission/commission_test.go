package commission

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreatorRateTierBoundary(t *testing.T) {
	require.Equal(t, CreatorBaseRateBps, CreatorRateBps(0))
	require.Equal(t, CreatorBaseRateBps, CreatorRateBps(499))
	require.Equal(t, CreatorBonusRateBps, CreatorRateBps(500))
	require.Equal(t, CreatorBonusRateBps, CreatorRateBps(10000))
}

func TestCreatorCommissionWorkedExample(t *testing.T) {
	// 10000.00 with a 10% discount leaves 9000.00; a creator with 10
	// lifetime paid users is on the base 8% rate, earning 720.00.
	rate, commission := CreatorCommissionCents(900000, 10)
	require.Equal(t, int64(800), rate)
	require.Equal(t, int64(72000), commission)
}

func TestCMOBonusCrossing(t *testing.T) {
	base, bonus := CMOCommissionCents(100000, CMOBonusYTDThreshold-1)
	require.Equal(t, int64(8000), base)
	require.Zero(t, bonus)

	// The crossing payment itself earns the bonus, applied to the whole
	// amount rather than the increment.
	base, bonus = CMOCommissionCents(100000, CMOBonusYTDThreshold)
	require.Equal(t, int64(8000), base)
	require.Equal(t, int64(5000), bonus)
}

func TestApplyTruncates(t *testing.T) {
	require.Equal(t, int64(0), Apply(1, 800))
	require.Equal(t, int64(79), Apply(999, 800))
}
