package models

import "strings"

// ClearingStatus tracks a quote or RFQ through the clearing workflow.
type ClearingStatus string

const (
	ClearingPendingPoolCreation          ClearingStatus = "pending_pool_creation"
	ClearingPendingTakerDepositApproval  ClearingStatus = "pending_taker_deposit_approval"
	ClearingPendingMakerLastLook         ClearingStatus = "pending_maker_last_look"
	ClearingPendingMakerDepositApproval  ClearingStatus = "pending_maker_deposit_approval"
	ClearingPendingAtomicDeposit         ClearingStatus = "pending_atomic_deposit"
	ClearingRejectedTakerDepositApproval ClearingStatus = "rejected_failed_taker_deposit_approval"
	ClearingRejectedMakerDepositApproval ClearingStatus = "rejected_failed_maker_deposit_approval"
	ClearingRejectedMakerLastLook        ClearingStatus = "rejected_maker_last_look_rejected"
	ClearingRejectedMakerLastLookExpired ClearingStatus = "rejected_maker_last_look_expired"
	ClearingRejectedPoolCreation         ClearingStatus = "rejected_failed_pool_creation"
	ClearingRejectedTakerFunding         ClearingStatus = "rejected_failed_taker_funding"
	ClearingRejectedMakerFunding         ClearingStatus = "rejected_failed_maker_funding"
	ClearingRejectedAtomicDeposit        ClearingStatus = "rejected_failed_atomic_deposit"
	ClearingSuccessTradesBooked          ClearingStatus = "success_trades_booked_into_pool"
)

// StatusCategory groups clearing statuses by lifecycle outcome.
type StatusCategory int

const (
	CategoryUnknown StatusCategory = iota
	CategoryPending
	CategoryRejected
	CategorySuccess
)

func (c StatusCategory) String() string {
	switch c {
	case CategoryPending:
		return "pending"
	case CategoryRejected:
		return "rejected"
	case CategorySuccess:
		return "success"
	default:
		return "unknown"
	}
}

var clearingCategories = map[ClearingStatus]StatusCategory{
	ClearingPendingPoolCreation:          CategoryPending,
	ClearingPendingTakerDepositApproval:  CategoryPending,
	ClearingPendingMakerLastLook:         CategoryPending,
	ClearingPendingMakerDepositApproval:  CategoryPending,
	ClearingPendingAtomicDeposit:         CategoryPending,
	ClearingRejectedTakerDepositApproval: CategoryRejected,
	ClearingRejectedMakerDepositApproval: CategoryRejected,
	ClearingRejectedMakerLastLook:        CategoryRejected,
	ClearingRejectedMakerLastLookExpired: CategoryRejected,
	ClearingRejectedPoolCreation:         CategoryRejected,
	ClearingRejectedTakerFunding:         CategoryRejected,
	ClearingRejectedMakerFunding:         CategoryRejected,
	ClearingRejectedAtomicDeposit:        CategoryRejected,
	ClearingSuccessTradesBooked:          CategorySuccess,
}

// Category returns the lifecycle group of s. An unlisted status that carries
// the rejected_ prefix is still CategoryRejected; any other unlisted status
// reports CategoryUnknown and is treated as non-final.
func (s ClearingStatus) Category() StatusCategory {
	if c, ok := clearingCategories[s]; ok {
		return c
	}
	if strings.HasPrefix(string(s), "rejected_") {
		return CategoryRejected
	}
	return CategoryUnknown
}

// IsFinal reports whether no further clearing transitions will happen.
func (s ClearingStatus) IsFinal() bool {
	switch s.Category() {
	case CategoryRejected, CategorySuccess:
		return true
	default:
		return false
	}
}

// ClearingStatuses lists every known status in workflow order.
func ClearingStatuses() []ClearingStatus {
	return []ClearingStatus{
		ClearingPendingPoolCreation,
		ClearingPendingTakerDepositApproval,
		ClearingPendingMakerLastLook,
		ClearingPendingMakerDepositApproval,
		ClearingPendingAtomicDeposit,
		ClearingRejectedTakerDepositApproval,
		ClearingRejectedMakerDepositApproval,
		ClearingRejectedMakerLastLook,
		ClearingRejectedMakerLastLookExpired,
		ClearingRejectedPoolCreation,
		ClearingRejectedTakerFunding,
		ClearingRejectedMakerFunding,
		ClearingRejectedAtomicDeposit,
		ClearingSuccessTradesBooked,
	}
}
