package boardcore

import "math"

// holdoff implements the shared fault-timer shape used throughout C3 (spec
// §4.2): the timer resets to "now" whenever the predicate is false, and the
// fault fires once the predicate has held true for longer than delayMS.
func (c *CoreState) holdoff(timer *int64, active bool, delayMS float64) bool {
	if !active {
		*timer = c.tick
		return false
	}
	return c.tick-*timer > c.msToTicks(delayMS)
}

// detectFault runs the C3 priority-ordered fault classification for this
// tick and returns the highest-priority fault detected, or FaultNone.
func (c *CoreState) detectFault() FaultKind {
	if f := c.detectSwitchFull(); f != FaultNone {
		return f
	}
	if c.setpointMode == ModeReverseStop {
		if f := c.detectReverseStop(); f != FaultNone {
			return f
		}
	}
	if f := c.detectSwitchHalf(); f != FaultNone {
		return f
	}
	if f := c.detectAnglePitch(); f != FaultNone {
		return f
	}
	if f := c.detectAngleRoll(); f != FaultNone {
		return f
	}
	if f := c.detectDuty(); f != FaultNone {
		return f
	}
	return FaultNone
}

// detectSwitchFull implements spec §4.2 rule 1: two independent hold-offs
// ORed together — the unconditional "pads off" rule debounced by
// fault_delay_switch_full, and the speed-gated "off and below 4x the
// half-erpm threshold" rule debounced by fault_delay_switch_half — plus the
// immediate quick-stop case and the high-speed suppression (§6.4
// fault_delay_switch_full mod 10 == 1). Whichever hold-off elapses first
// fires the fault; neither rule substitutes for the other.
func (c *CoreState) detectSwitchFull() FaultKind {
	switchOff := c.switchState == SwitchOff
	quickStop := c.absERPM < c.cfg.FaultADCHalfERPM && math.Abs(c.pitch) > 15

	suppressed := c.absERPM > 3000 && c.d.forbidHighSpeedFullSwitchFault
	active := switchOff && !suppressed
	gated := active && c.absERPM < 4*c.cfg.FaultADCHalfERPM

	firedFull := c.holdoff(&c.faultSwitchFullTimer, active, c.cfg.FaultDelaySwitchFull)
	firedGated := c.holdoff(&c.faultSwitchFullGatedTimer, gated, c.cfg.FaultDelaySwitchHalf)
	if quickStop || firedFull || firedGated {
		return FaultSwitchFull
	}
	return FaultNone
}

// detectReverseStop implements spec §4.2 rule 2, active only while
// setpoint_mode==REVERSESTOP.
func (c *CoreState) detectReverseStop() FaultKind {
	if c.switchState == SwitchOff {
		return FaultSwitchFull
	}
	absPitch := math.Abs(c.pitch)
	if absPitch > 15 {
		return FaultReverse
	}
	if absPitch < 5 {
		c.reverseTimer = c.tick
	}
	elapsed := c.tick - c.reverseTimer
	if absPitch > 10 && elapsed > c.msToTicks(500) {
		return FaultReverse
	}
	if absPitch > 5 && elapsed > c.msToTicks(1000) {
		return FaultReverse
	}
	if math.Abs(c.reverseTotalERPM) > 3*c.cfg.ReverseTolerance {
		return FaultReverse
	}
	return FaultNone
}

// detectSwitchHalf implements spec §4.2 rule 3.
func (c *CoreState) detectSwitchHalf() FaultKind {
	active := (c.switchState == SwitchHalf || c.switchState == SwitchOff) && c.absERPM < c.cfg.FaultADCHalfERPM
	if c.holdoff(&c.faultSwitchHalfTimer, active, c.cfg.FaultDelaySwitchHalf) {
		return FaultSwitchHalf
	}
	return FaultNone
}

// detectAnglePitch implements spec §4.2 rule 4.
func (c *CoreState) detectAnglePitch() FaultKind {
	active := math.Abs(c.pitch) > c.cfg.FaultPitch
	if c.holdoff(&c.faultPitchTimer, active, c.cfg.FaultDelayPitch) {
		return FaultAnglePitch
	}
	return FaultNone
}

// detectAngleRoll implements spec §4.2 rule 5.
func (c *CoreState) detectAngleRoll() FaultKind {
	active := math.Abs(c.roll) > c.cfg.FaultRoll
	if c.holdoff(&c.faultRollTimer, active, c.cfg.FaultDelayRoll) {
		return FaultAngleRoll
	}
	return FaultNone
}

// detectDuty implements spec §4.2 rule 6. FAULT_DUTY is sticky: the
// supervisor (C7) holds phase at FAULT_DUTY until reclassification fires a
// different named fault, regardless of whether this predicate is still true.
func (c *CoreState) detectDuty() FaultKind {
	active := math.Abs(c.duty) > c.cfg.FaultDuty
	if c.holdoff(&c.faultDutyTimer, active, c.cfg.FaultDelayDuty) {
		c.faultDutySticky = true
		return FaultDuty
	}
	return FaultNone
}
