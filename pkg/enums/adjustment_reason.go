package enums

import "fmt"

// AdjustmentReason classifies why an available-quantity delta was applied.
type AdjustmentReason string

const (
	AdjustmentReasonRestock     AdjustmentReason = "restock"
	AdjustmentReasonShrinkage   AdjustmentReason = "shrinkage"
	AdjustmentReasonCorrection  AdjustmentReason = "correction"
	AdjustmentReasonTransferOut AdjustmentReason = "transfer_out"
	AdjustmentReasonTransferIn  AdjustmentReason = "transfer_in"
	AdjustmentReasonDamage      AdjustmentReason = "damage"
	AdjustmentReasonRecount     AdjustmentReason = "recount"
)

var validAdjustmentReasons = []AdjustmentReason{
	AdjustmentReasonRestock,
	AdjustmentReasonShrinkage,
	AdjustmentReasonCorrection,
	AdjustmentReasonTransferOut,
	AdjustmentReasonTransferIn,
	AdjustmentReasonDamage,
	AdjustmentReasonRecount,
}

// IsValid reports whether the value matches the canonical enum.
func (r AdjustmentReason) IsValid() bool {
	for _, candidate := range validAdjustmentReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAdjustmentReason converts raw input into AdjustmentReason.
func ParseAdjustmentReason(value string) (AdjustmentReason, error) {
	for _, candidate := range validAdjustmentReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment reason %q", value)
}
