package pipeline

import (
	"shale-dashboard/internal/models"
)

// McCainGORThreshold separates oil from gas behavior in the McCain correlation,
// in the GOR units used here (1000 × gas volume / oil volume).
const McCainGORThreshold = 3000.0

// GOR returns 1000·Gp/Np, or models.UndefinedRatio when Np is zero.
func GOR(np, gp float64) float64 {
	if np == 0 {
		return models.UndefinedRatio
	}
	return gp / np * 1000
}

// WOR returns Wp/Np, or models.UndefinedRatio when Np is zero.
func WOR(wp, np float64) float64 {
	if np == 0 {
		return models.UndefinedRatio
	}
	return wp / np
}

// WGR returns 1000·Wp/Gp, or models.UndefinedRatio when Gp is zero.
func WGR(wp, gp float64) float64 {
	if gp == 0 {
		return models.UndefinedRatio
	}
	return wp / gp * 1000
}

// ClassifyMcCain classifies a well from its final cumulatives. A well without
// oil is always gas; otherwise GOR strictly above the threshold is gas.
func ClassifyMcCain(np, gp float64) string {
	if np == 0 || GOR(np, gp) > McCainGORThreshold {
		return models.FluidGas
	}
	return models.FluidOil
}

// EffectiveWellType keeps the raw label unless it is the ambiguous "other
// type", in which case the McCain classification replaces it.
func EffectiveWellType(raw, mccain string) string {
	if raw == models.OtherType {
		return mccain
	}
	return raw
}
