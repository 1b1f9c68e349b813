package engine

import (
	"math"

	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
)

// Baseline spend per frequency band, in the same currency unit as the
// transaction amount. Deviation is measured against these fixed anchors.
const (
	BaselineRare    = 2000.0
	BaselineRegular = 15000.0
	BaselineActive  = 25000.0
)

// BandFor buckets a user-declared monthly transaction count. Non-positive
// counts mean the user declared nothing, which maps to BandUnknown.
func BandFor(monthlyFrequency int) pkg.FrequencyBand {
	switch {
	case monthlyFrequency <= 0:
		return pkg.BandUnknown
	case monthlyFrequency <= 3:
		return pkg.BandRare
	case monthlyFrequency <= 10:
		return pkg.BandRegular
	default:
		return pkg.BandActive
	}
}

// BandBaseline returns the typical-spend anchor for a band. The second return
// is false for BandUnknown.
func BandBaseline(band pkg.FrequencyBand) (float64, bool) {
	switch band {
	case pkg.BandRare:
		return BaselineRare, true
	case pkg.BandRegular:
		return BaselineRegular, true
	case pkg.BandActive:
		return BaselineActive, true
	default:
		return 0, false
	}
}

// Derive computes the behavioral features the scorer needs from the canonical
// transaction and the declared monthly frequency. Deterministic and free of
// I/O: calling it twice with identical inputs yields identical output.
//
// AmountDeviation stays nil when either the frequency or the amount is
// unspecified; scorers must treat nil as "unknown", never as zero deviation.
func Derive(tx views.Transaction, monthlyFrequency int) views.DerivedFeatures {
	features := views.DerivedFeatures{
		FrequencyBand: BandFor(monthlyFrequency),
	}
	if monthlyFrequency > 0 {
		features.MonthlyFrequency = monthlyFrequency
	}

	baseline, ok := BandBaseline(features.FrequencyBand)
	if !ok || tx.Amount == nil {
		return features
	}
	deviation := math.Abs(*tx.Amount - baseline)
	features.AmountDeviation = &deviation
	return features
}
