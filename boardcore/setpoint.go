package boardcore

import (
	"context"
	"math"
)

// stepSizeForMode returns the per-tick interpolation step for the
// setpoint interpolant's current mode (spec §4.3: "the interpolant tracks
// its target at the per-mode step size"). Only the duty tiltback has its own
// configured speed; centering and TILTBACK_HV/LV/NONE all step at
// tiltback_speed.
func (c *CoreState) stepSizeForMode(mode SetpointMode) float64 {
	switch mode {
	case ModeCentering:
		return c.d.centeringStep
	case ModeTiltbackDuty:
		return c.d.tiltbackDutyStep
	default:
		return c.d.tiltbackStep
	}
}

// classifySetpoint is C4: choose setpoint_mode and setpoint_target for this
// tick, then advance setpoint_target_interp toward the target (spec §4.3).
func (c *CoreState) classifySetpoint(ctx context.Context) {
	switch c.setpointMode {
	case ModeCentering:
		c.classifyCentering()
	case ModeReverseStop:
		c.classifyReverseStop()
	default:
		c.classifyTiltback(ctx)
	}

	step := c.stepSizeForMode(c.setpointMode)
	c.setpointTargetInterp = approach(c.setpointTargetInterp, c.setpointTarget, step)
}

// classifyCentering implements spec §4.3 rule 1.
func (c *CoreState) classifyCentering() {
	reached := c.setpointTargetInterp == c.setpointTarget
	if !reached {
		c.centeringReached = false
		return
	}
	if !c.centeringReached {
		c.centeringReached = true
		c.centeringReachedAt = c.tick
	}
	if !c.cfg.SoftStartEnabled {
		c.enterTiltbackNone()
		return
	}
	if c.tick-c.centeringReachedAt > c.msToTicks(c.cfg.StartGraceMS) {
		c.enterTiltbackNone()
	}
}

// classifyReverseStop implements spec §4.3 rule 2.
func (c *CoreState) classifyReverseStop() {
	c.reverseTotalERPM += c.erpm
	tol := c.cfg.ReverseTolerance
	absSum := math.Abs(c.reverseTotalERPM)

	if absSum > tol {
		c.setpointTarget = 10 * (absSum - tol) / 50000
	}
	if absSum <= tol/2 && c.erpm >= 0 {
		c.setpointMode = ModeTiltbackNone
		c.integral = 0
		c.setpointTarget = 0
		c.reverseTotalERPM = 0
	}
}

// classifyTiltback implements spec §4.3 rules 3-7: duty, HV, LV and
// over-temperature tiltbacks, falling through to TILTBACK_NONE and the
// re-entry into REVERSESTOP.
func (c *CoreState) classifyTiltback(ctx context.Context) {
	switch {
	case math.Abs(c.duty) > c.cfg.TiltbackDuty:
		c.setpointMode = ModeTiltbackDuty
		c.setpointTarget = math.Copysign(c.cfg.TiltbackDutyAngle, c.duty)
		c.hvDebounceActive = false

	case c.batteryVoltage > c.cfg.TiltbackHV:
		if !c.hvDebounceActive {
			c.hvDebounceActive = true
			c.hvDebounceTimer = c.tick
		}
		overVoltage := c.batteryVoltage > c.cfg.TiltbackHV+1
		elapsed := c.tick - c.hvDebounceTimer
		if overVoltage || elapsed > c.msToTicks(500) {
			c.setpointMode = ModeTiltbackHV
			c.setpointTarget = math.Copysign(c.cfg.TiltbackHVAngle, c.duty)
			c.beepTriple(ctx, false)
		}

	case c.batteryVoltage < c.cfg.TiltbackLV:
		c.setpointMode = ModeTiltbackLV
		c.setpointTarget = math.Copysign(c.cfg.TiltbackLVAngle, c.duty)
		c.hvDebounceActive = false
		c.beepTriple(ctx, false)

	case c.fetTemp > c.cfg.LTempFETStart-1:
		c.setpointMode = ModeTiltbackLV
		c.setpointTarget = math.Copysign(c.cfg.TiltbackLVAngle, c.duty)
		c.hvDebounceActive = false
		c.beepTriple(ctx, true)

	default:
		c.setpointMode = ModeTiltbackNone
		c.setpointTarget = 0
		c.hvDebounceActive = false
		if c.d.reverseStopEnabled && c.erpm < 0 {
			c.setpointMode = ModeReverseStop
			c.reverseTotalERPM = 0
		}
	}
}

// enterTiltbackNone transitions out of CENTERING once the grace period (or
// a disabled soft start) has elapsed.
func (c *CoreState) enterTiltbackNone() {
	c.setpointMode = ModeTiltbackNone
	c.setpointTarget = 0
}

// beepTriple emits the tiltback warning pattern (spec §4.3 rules 4-6).
func (c *CoreState) beepTriple(ctx context.Context, long bool) {
	if c.buzzer != nil {
		c.buzzer.BeepAlert(ctx, 3, long)
	}
}
