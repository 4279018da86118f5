package boardcore

import "math"

// updateCutback implements the spec §4.4 "cutback detector inside turn
// tilt": true when the board is banked hard into the turn (large roll
// aggregate and yaw rate) while the instantaneous yaw/roll ratio says the
// turn is tightening rather than opening up.
func (c *CoreState) updateCutback() {
	absYawScaled := 100 * math.Abs(c.yawChange)
	bankedIntoTurn := math.Abs(c.rollAggregate) > 5000 && absYawScaled > 5

	ratio := 0.0
	if c.roll != 0 {
		ratio = c.yawChange * 100 / c.roll
	}
	c.cutback = bankedIntoTurn && ratio < 1
}

// updateTurnTilt is the turn-tilt shaper (spec §4.4): only active in
// RUNNING*, it scales a yaw-rate-proportional target by an ERPM boost and
// an aggregate-yaw boost, caps it, and lets a large Adaptive Torque
// Response target cancel it out (ATR interference). It runs before ATR
// each tick, so its ATR-interference read sees the previous tick's
// torquetilt_target, and the cutback flag it sets here is what this tick's
// ATR cutback override consumes.
func (c *CoreState) updateTurnTilt() {
	c.updateCutback()

	if !c.phase.IsRunning() {
		c.turntiltTarget = 0
		c.turntiltInterp = approach(c.turntiltInterp, c.turntiltTarget, c.d.turntiltStep)
		return
	}

	absYawScaled := 100 * math.Abs(c.yawChange)
	if absYawScaled < c.cfg.TurntiltStartAngle {
		c.turntiltTarget = 0
		c.turntiltInterp = approach(c.turntiltInterp, c.turntiltTarget, c.d.turntiltStep)
		return
	}

	target := math.Abs(c.yawChange) * c.cfg.TurntiltStrength

	boostFrac := 1.0
	if c.cfg.TurntiltERPMBoostEnd > 0 {
		boostFrac = math.Min(c.absERPM/c.cfg.TurntiltERPMBoostEnd, 1)
	}
	target *= 1 + (c.cfg.TurntiltERPMBoost/100)*boostFrac

	damper := 1.0
	if c.absERPM < 2000 {
		damper = 0.5
	}
	aggBoost := 1.0
	if c.d.yawAggregateTarget != 0 {
		aggBoost = 1 + damper*math.Abs(c.yawAggregate)/c.d.yawAggregateTarget
	}
	target *= math.Min(aggBoost, 2)

	target = clampAbs(target, c.cfg.TurntiltAngleLimit)

	if c.absERPM < c.cfg.TurntiltStartERPM {
		target = 0
	} else {
		target = math.Copysign(target, c.erpm)
	}

	atrMin, atrMax := 2.0, 5.0
	if signOf(c.torquetiltTarget) != 0 && signOf(c.torquetiltTarget) != signOf(c.erpm) {
		atrMin, atrMax = 1.0, 4.0
	}
	if absTT := math.Abs(c.torquetiltTarget); absTT > atrMin {
		scale := clamp(1-(absTT-atrMin)/(atrMax-atrMin), 0, 1)
		target *= scale
		if scale == 0 {
			c.yawAggregate = 0
		}
	}

	// Heavy accel/brake (a large gap between pitch and the nose-angling
	// interpolant) freezes turn tilt.
	if math.Abs(c.pitch-c.noseanglingInterp) > 4 {
		target = 0
	}

	c.turntiltTarget = target
	c.turntiltInterp = approach(c.turntiltInterp, c.turntiltTarget, c.d.turntiltStep)
}
