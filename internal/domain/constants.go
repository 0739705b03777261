package domain

const (
	RoleStudent = "STUDENT"
	RoleCreator = "CREATOR"
	RoleCMO     = "CMO"
	RoleAdmin   = "ADMIN"
)

// Withdrawal request lifecycle. PAID and REJECTED are terminal.
const (
	WithdrawalPending  = "PENDING"
	WithdrawalApproved = "APPROVED"
	WithdrawalPaid     = "PAID"
	WithdrawalRejected = "REJECTED"
)

// CMO payout lifecycle.
const (
	PayoutPending  = "PENDING"
	PayoutEligible = "ELIGIBLE"
	PayoutPaid     = "PAID"
)

const (
	ChannelGateway = "GATEWAY"
	ChannelManual  = "MANUAL"
)

const (
	NotifCommissionEarned   = "COMMISSION_EARNED"
	NotifWithdrawalApproved = "WITHDRAWAL_APPROVED"
	NotifWithdrawalPaid     = "WITHDRAWAL_PAID"
	NotifWithdrawalRejected = "WITHDRAWAL_REJECTED"
)

// System setting keys with their fallback values.
const (
	SettingWithdrawalMinCents = "withdrawal_min_cents"
	SettingWithdrawalFeeBps   = "withdrawal_fee_bps"

	DefaultWithdrawalMinCents = 50000 // 500.00
	DefaultWithdrawalFeeBps   = 200   // 2%
)

// MonthLayout is the key format for PaymentAttribution.PaymentMonth and CMOPayout.Month.
const MonthLayout = "2006-01"
