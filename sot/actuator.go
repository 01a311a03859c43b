package sot

import (
	"math"
)

// Position is the commanded angle of both axes in degrees. It is only
// mutated by Correct and survives tracking loss.
type Position struct {
	H int
	V int
}

// Axes reports which axes Correct moved.
type Axes struct {
	H bool
	V bool
}

// Any reports whether at least one axis moved
func (a Axes) Any() bool {
	return a.H || a.V
}

// Correct applies one proportional step toward target. Each axis is handled
// independently: an error strictly larger than the deadzone adds
// round(gain*error) to the axis and clamps it to [MinDeg, MaxDeg]; otherwise
// the axis is left alone. NoTarget is a no-op.
func Correct(target, center Pixel, cfg ActuatorConfig, pos *Position) Axes {
	var moved Axes
	if target.IsNone() {
		return moved
	}
	errH := target.X - center.X
	errV := target.Y - center.Y
	if cfg.InvertH {
		errH = -errH
	}
	if cfg.InvertV {
		errV = -errV
	}
	pos.H, moved.H = correctAxis(pos.H, errH, cfg.GainH, cfg)
	pos.V, moved.V = correctAxis(pos.V, errV, cfg.GainV, cfg)
	return moved
}

func correctAxis(current, axisErr int, gain float64, cfg ActuatorConfig) (int, bool) {
	if absInt(axisErr) <= cfg.Deadzone {
		return current, false
	}
	next := clampInt(current+int(math.Round(gain*float64(axisErr))), cfg.MinDeg, cfg.MaxDeg)
	return next, next != current
}
