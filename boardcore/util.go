package boardcore

import "math"

// signOf returns -1, 0 or 1 matching the sign of v.
func signOf(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// clampAbs bounds v to [-limit, limit].
func clampAbs(v, limit float64) float64 {
	return clamp(v, -limit, limit)
}

// combinedSetpoint returns the running setpoint the PID core targets: the
// director's interpolated target plus every C5 shaper's current offset
// (spec §4.4 "all shapers add to a running setpoint initially equal to
// setpoint_target_interp").
func (c *CoreState) combinedSetpoint() float64 {
	return c.setpointTargetInterp + c.noseanglingInterp + c.torquetiltInterp + c.turntiltInterp
}

// approach moves interp toward target by at most step, snapping when within
// one step (spec §4.3 "the interpolant tracks its target at the per-mode
// step size; if within one step of the target, snap").
func approach(interp, target, step float64) float64 {
	if step <= 0 {
		return target
	}
	if math.Abs(target-interp) <= step {
		return target
	}
	if target > interp {
		return interp + step
	}
	return interp - step
}
