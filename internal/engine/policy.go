package engine

import (
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
)

// Reason codes carried on payment decisions.
const (
	ReasonHighRiskBlocked = "RISK_HIGH_BLOCKED"
	ReasonMediumRiskWarn  = "RISK_MEDIUM_WARN"
	ReasonLowRiskClear    = "RISK_LOW_CLEAR"
	ReasonUnknownBlocked  = "RISK_UNKNOWN_BLOCKED"
)

// Display labels for the payment action.
const (
	DisplayBlocked = "BLOCKED"
	DisplayCaution = "PROCEED WITH CAUTION"
	DisplayClear   = "SAFE TO PAY"
)

// Decide maps a risk assessment to the payment gate verdict. It is total and
// pure over the label: the label is the sole authority, the probability is
// never inspected, so threshold changes in scorers cannot desynchronize the
// gate. A label outside the known set fails closed.
func Decide(assessment views.RiskAssessment) views.PaymentDecision {
	switch assessment.Label {
	case pkg.RiskHigh:
		return views.PaymentDecision{Allowed: false, ReasonCode: ReasonHighRiskBlocked, DisplayLabel: DisplayBlocked}
	case pkg.RiskMedium:
		return views.PaymentDecision{Allowed: true, ReasonCode: ReasonMediumRiskWarn, DisplayLabel: DisplayCaution}
	case pkg.RiskLow:
		return views.PaymentDecision{Allowed: true, ReasonCode: ReasonLowRiskClear, DisplayLabel: DisplayClear}
	default:
		return views.PaymentDecision{Allowed: false, ReasonCode: ReasonUnknownBlocked, DisplayLabel: DisplayBlocked}
	}
}
