package boardcore

import "math"

// atrExpectedAcceleration predicts acceleration from the biquad-filtered
// motor current (spec §4.4 ATR): linear below 25 A, piecewise above it
// using accel_factor2 (1.3x accel_factor) for the excess, after subtracting
// the torquetilt_start_current offset.
func (c *CoreState) atrExpectedAcceleration(filteredCurrent float64) float64 {
	adj := filteredCurrent
	if math.Abs(adj) < c.cfg.TorquetiltStartCurrent {
		return 0
	}
	adj -= math.Copysign(c.cfg.TorquetiltStartCurrent, adj)

	absAdj := math.Abs(adj)
	if absAdj <= 25 {
		return adj / c.d.accelFactor
	}
	base := 25 / c.d.accelFactor
	extra := (absAdj - 25) / c.d.accelFactor2
	return math.Copysign(base+extra, adj)
}

// atrMeasuredAcceleration implements spec §9 Open Question #2: the source
// clips acceleration to a floor of -5 and then unconditionally overwrites
// with a ceiling of 5, so only the upper clip is observable.
func (c *CoreState) atrMeasuredAcceleration() float64 {
	return math.Min(c.acceleration, 5)
}

// atrEMAWeight selects the accel_gap EMA weight from the abs_erpm bucket
// table (spec §4.4), reporting forceZero for the ≤250, |expected|<1 case
// and whether this tick counts as "static climb".
func (c *CoreState) atrEMAWeight(expected float64) (weight float64, forceZero, staticClimb bool) {
	switch {
	case c.absERPM > 2000:
		return 0.10, false, false
	case c.absERPM > 1000:
		return 0.05, false, false
	case c.absERPM > 250:
		return 0.02, false, false
	}

	absExpected := math.Abs(expected)
	switch {
	case absExpected < 1:
		return 0, true, false
	case absExpected < 1.5:
		if math.Abs(c.accelGap) > 1 {
			return 0.10, false, true
		}
		return 0.01, false, false
	default:
		if math.Abs(c.accelGap) > 1 {
			return 0.10, false, true
		}
		return 0.05, false, false
	}
}

// atrStepSize chooses the torquetilt_interp step toward target (spec
// §4.4's 18-case decision table, keyed on direction of travel, proximity,
// |accel_gap|, braking and static_climb). The source table is reproduced
// as scenario S3 rather than enumerated verbatim; this implementation
// preserves its stated invariants: downward motion (the interpolant
// retreating toward zero) always uses the "off" step unless the target has
// reversed sign out from under it, static climb forces the slowest "on/3"
// approach, a small gap halves the step, and braking allows a faster
// 1.5x approach.
func (c *CoreState) atrStepSize(target float64, braking, staticClimb bool) float64 {
	movingAway := math.Abs(target) > math.Abs(c.torquetiltInterp)
	reversingCourse := c.torquetiltInterp != 0 && signOf(target) != 0 && signOf(target) != signOf(c.torquetiltInterp)

	switch {
	case reversingCourse:
		return c.d.torquetiltOnStep
	case !movingAway:
		return c.d.torquetiltOffStep
	case staticClimb:
		return c.d.torquetiltOnStep / 3
	case math.Abs(c.accelGap) < 0.5:
		return c.d.torquetiltOnStep / 2
	case braking:
		return c.d.torquetiltOnStep * 1.5
	default:
		return c.d.torquetiltOnStep
	}
}

// updateATR is the Adaptive Torque Response shaper (spec §4.4). It must
// run after updateTurnTilt so its cutback override sees this tick's
// cutback flag while turn tilt's ATR-interference read consumed last
// tick's torquetilt_target.
func (c *CoreState) updateATR() {
	filtered := c.atrCurrentFilter.Apply(c.motorCurrent)
	expected := c.atrExpectedAcceleration(filtered)
	measured := c.atrMeasuredAcceleration()
	accDiff := expected - measured

	weight, forceZero, staticClimb := c.atrEMAWeight(expected)
	if forceZero {
		c.accelGap = 0
		c.staticClimb = false
	} else {
		c.accelGap = (1-weight)*c.accelGap + weight*accDiff
		c.staticClimb = staticClimb
	}

	sign := signOf(c.accelGap)
	if sign != 0 && sign != c.accelGapAggregateSign {
		c.accelGapAggregate = 0
		c.accelGapAggregateSign = sign
	} else {
		c.accelGapAggregate += c.accelGap
	}

	braking := c.erpm != 0 && signOf(c.motorCurrent) != 0 && signOf(c.motorCurrent) != signOf(c.erpm)

	// Climbing (motor driving the same direction it's already turning) uses
	// tt_strength_uphill in place of the plain torquetilt_strength, the
	// uphill counterpart of the downhill braking damper below (spec §9 Open
	// Question #1).
	strength := c.cfg.TorquetiltStrength
	climbing := !braking && c.erpm != 0 && signOf(c.motorCurrent) != 0 && signOf(c.motorCurrent) == signOf(c.erpm)
	if climbing {
		strength = c.d.torquetiltStrengthUphill
	}
	newTTT := strength * c.accelGap

	if c.cutback && c.absERPM > 2000 {
		if signOf(newTTT) == signOf(c.erpm) {
			newTTT *= 0.25
		} else {
			newTTT *= 1.5
		}
	}

	if braking && c.absERPM > 1000 && signOf(c.lastProportional) != 0 && signOf(c.lastProportional) != signOf(c.erpm) {
		damper := c.d.downhillStrengthPct / 100
		if damper == 0 {
			damper = 1
		}
		newTTT += (c.pitch - c.combinedSetpoint()) / c.d.tttBrakeRatio / damper
	}

	c.torquetiltTarget = clampAbs(0.95*c.torquetiltTarget+0.05*newTTT, c.cfg.TorquetiltAngleLimit)

	step := c.atrStepSize(c.torquetiltTarget, braking, c.staticClimb)
	c.torquetiltInterp = approach(c.torquetiltInterp, c.torquetiltTarget, step)
}
