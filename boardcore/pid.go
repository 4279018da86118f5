package boardcore

import (
	"context"
	"math"
)

// computeGainTargets implements spec §4.5 "Adaptive gains": above a 2°
// torque-tilt interpolant, kp and ki ramp up and kd is pulled down once the
// rider is far from center.
func (c *CoreState) computeGainTargets() (kpTarget, kiTarget, kdTarget float64) {
	const maxDIMult = 1.7
	const ttPIDIntensity = 1.0

	absTT := math.Abs(c.torquetiltInterp)
	pMult, diMult := 1.0, 1.0
	if absTT > 2 {
		pMult = absTT / 6 * ttPIDIntensity
		diMult = math.Min(1+pMult/2, maxDIMult)
		pMult = math.Min(1+pMult, 2)
	}

	kpTarget = c.cfg.Kp * pMult
	kiTarget = c.cfg.Ki * diMult
	kdTarget = c.cfg.Kd
	if math.Abs(c.lastProportional) > c.d.centerBoostAngle+0.5 {
		kdTarget = c.cfg.Kd * (diMult / maxDIMult)
	}
	return
}

// easeGain moves current toward target at up/down rates that may differ.
func easeGain(current, target, upStep, downStep float64) float64 {
	if target > current {
		return math.Min(current+upStep, target)
	}
	return math.Max(current-downStep, target)
}

// updateGains implements the per-mode easing rates and the REVERSESTOP
// gain override of spec §4.5.
func (c *CoreState) updateGains() {
	if c.setpointMode == ModeReverseStop {
		c.kp = 2
		c.kd = 400
		c.ki = 0
		c.integral = 0
		return
	}

	kpT, kiT, kdT := c.computeGainTargets()
	if c.setpointMode == ModeCentering {
		c.kp = easeGain(c.kp, kpT, 0.005, 0.005)
		c.ki = easeGain(c.ki, kiT, 0.005, 0.005)
		c.kd = easeGain(c.kd, kdT, 0.005, 0.005)
		return
	}
	c.kp = easeGain(c.kp, kpT, 0.02, 0.002)
	c.ki = easeGain(c.ki, kiT, 0.02, 0.002)
	c.kd = easeGain(c.kd, kdT, 0.02, 0.02)
}

// centerJerk is the small oscillatory term added during the
// START_CENTER_DELAY_MS window (spec §4.5) on top of the ramping center
// boost, scaled by the repurposed center-jerk strength/duration fields.
func (c *CoreState) centerJerk(elapsedMS float64) float64 {
	if c.d.centerJerkDurationMS <= 0 || elapsedMS > c.d.centerJerkDurationMS {
		return 0
	}
	phase := elapsedMS / c.d.centerJerkDurationMS * 2 * math.Pi
	return c.d.centerJerkStrength * math.Sin(phase)
}

// pidBrakeMax computes pid_max for the P+D brake clamp (spec §4.5).
func (c *CoreState) pidBrakeMax(pidProp float64) float64 {
	pidMax := math.Max(c.d.maxBrakeAmps, math.Abs(pidProp))
	if c.torquetiltInterp > 2 {
		pidMax *= 0.75 + c.torquetiltInterp/8
	}
	if c.absERPM > 2000 {
		pidMax *= 0.8 + c.absERPM/10000
	}
	return pidMax
}

// runPID is C6: the PID core that turns pitch error into a target motor
// current, run once per tick while the phase is RUNNING* (spec §4.5).
func (c *CoreState) runPID(ctx context.Context) error {
	if !c.phase.IsRunning() {
		return nil
	}

	setpoint := c.combinedSetpoint()
	P := setpoint - c.pitch
	c.lastProportional = P

	ttImpact := c.d.integralTTImpactUphill
	if c.torquetiltInterp < 0 {
		ttImpact = c.d.integralTTImpactDownhill
	} else if c.absERPM < 2500 {
		ttImpact *= math.Max(0.3, c.absERPM/2500)
	}
	c.integral += P - c.torquetiltInterp*ttImpact

	rawD := c.lastPitch - c.pitch
	c.lastPitch = c.pitch
	D := c.dFilter.Apply(rawD)

	c.updateGains()

	braking := c.erpm != 0 && signOf(c.motorCurrent) != 0 && signOf(c.motorCurrent) != signOf(c.erpm)

	softStart := c.setpointMode == ModeCentering && c.cfg.SoftStartEnabled

	var combined, I float64
	if softStart {
		c.integral = 0
		pidProp := c.kp*P + c.kd*D
		c.pidValue = 0.05*pidProp + 0.95*c.pidValue
		combined = pidProp
		I = 0
	} else {
		boost := c.d.centerBoostKpAdder * math.Min(math.Abs(P), c.d.centerBoostAngle) * float64(signOf(P))

		if c.startWindowActive {
			elapsedMS := float64(c.tick-c.startWindowBeginTick) * 1000 / c.cfg.Hz
			if elapsedMS < c.cfg.StartCenterDelayMS {
				boost = boost*(elapsedMS/c.cfg.StartCenterDelayMS) + c.centerJerk(elapsedMS)
			} else {
				c.startWindowActive = false
			}
		}

		pidProp := c.kp*P + boost
		if !c.startWindowActive && math.Abs(P) > c.cfg.AccelBoostThresh && !braking {
			mult := 1.0
			if math.Abs(P) > c.cfg.AccelBoostThresh2 {
				mult = 2.0
			}
			pidProp += mult * c.cfg.AccelBoostIntensity * c.kp * (math.Abs(P) - c.cfg.AccelBoostThresh)
		}

		kdD := clampAbs(c.kd*D, c.d.maxDerivative)
		combined = pidProp + kdD

		if signOf(c.erpm) != 0 && signOf(c.erpm) != signOf(combined) {
			combined = clampAbs(combined, c.pidBrakeMax(pidProp))
		}

		I = c.ki * c.integral
		c.pidValue = 0.2*(combined+I) + 0.8*c.pidValue
	}

	out := c.pidValue

	if !c.d.stealthStart && c.clickTicksRemaining > 0 {
		sign := 1.0
		if c.clickTicksRemaining%2 == 0 {
			sign = -1
		}
		out += sign * c.d.clickCurrent
		c.clickTicksRemaining--
	}

	minOut := c.motorConfig.CurrentMin + c.cfg.CurrentMinHeadroom
	maxOut := c.motorConfig.CurrentMax - c.cfg.CurrentMaxHeadroom

	// Shed current linearly over the shed_factor degrees before
	// l_temp_fet_start, ahead of the harder TILTBACK_LV response in
	// classifyTiltback (spec §9 Open Question #1).
	shedStart := c.cfg.LTempFETStart - c.d.shedFactor
	if c.fetTemp > shedStart {
		shed := clamp((c.fetTemp-shedStart)/c.d.shedFactor, 0, 1)
		minOut *= 1 - shed
		maxOut *= 1 - shed
	}

	clamped := clamp(out, minOut, maxOut)
	if clamped != out {
		c.currentLimiting = true
		if c.buzzer != nil {
			if err := c.buzzer.Beep(ctx, true, false); err != nil {
				return err
			}
		}
	} else {
		c.currentLimiting = false
	}
	c.pidOutput = clamped
	return nil
}
