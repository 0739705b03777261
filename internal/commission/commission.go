// Package commission holds the tier math for creator and CMO
// commissions. Everything here is pure: rates are recomputed fresh at
// every ledger event from the counts passed in, never cached on the
// referrer record, so a tier crossing applies to the triggering payment
// and all later ones.
package commission

const (
	// Creator tiers. The bonus rate unlocks permanently once the stored
	// lifetime paid-user count reaches the threshold; the event recorded
	// while the count is still 499 is charged the base rate.
	CreatorBaseRateBps  int64 = 800  // 8%
	CreatorBonusRateBps int64 = 1200 // 12%
	CreatorBonusThreshold int64 = 500

	// CMO roll-up. Base commission is 8% of the gross attributed through
	// subordinates. The bonus is a further 5% of the whole amount once
	// the subordinates' combined year-to-date paid-user count, counting
	// the triggering payment, reaches the threshold.
	CMOBaseRateBps  int64 = 800 // 8%
	CMOBonusRateBps int64 = 500 // 5%
	CMOBonusYTDThreshold int64 = 280
)

// CreatorRateBps returns the commission rate for a creator whose stored
// lifetime paid-user count is lifetimePaidUsers.
func CreatorRateBps(lifetimePaidUsers int64) int64 {
	if lifetimePaidUsers >= CreatorBonusThreshold {
		return CreatorBonusRateBps
	}
	return CreatorBaseRateBps
}

// CreatorCommissionCents computes the commission on a final amount.
func CreatorCommissionCents(finalAmountCents, lifetimePaidUsers int64) (rateBps, commissionCents int64) {
	rateBps = CreatorRateBps(lifetimePaidUsers)
	return rateBps, Apply(finalAmountCents, rateBps)
}

// CMOCommissionCents splits a subordinate-attributed amount into base and
// bonus commission. ytdPaidUsers must already include the triggering
// payment: the crossing payment itself earns the bonus.
func CMOCommissionCents(finalAmountCents, ytdPaidUsers int64) (baseCents, bonusCents int64) {
	baseCents = Apply(finalAmountCents, CMOBaseRateBps)
	if ytdPaidUsers >= CMOBonusYTDThreshold {
		bonusCents = Apply(finalAmountCents, CMOBonusRateBps)
	}
	return baseCents, bonusCents
}

// Apply computes amount * bps / 10000, truncating toward zero.
func Apply(amountCents, rateBps int64) int64 {
	return amountCents * rateBps / 10000
}
