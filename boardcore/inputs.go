package boardcore

import (
	"context"
	"math"
)

const radToDeg = 180 / math.Pi

// sampleInputs is C2: read the IMU, motor telemetry and pads, and derive
// pitch/roll/yaw, erpm, the acceleration window and switch state (spec
// §4.1). The IMU port reports radians (spec §6.2); everything downstream of
// this function works in degrees (spec §4.1), so the conversion happens
// here, once.
func (c *CoreState) sampleInputs(ctx context.Context) error {
	pitchRad, err := c.imu.Pitch(ctx)
	if err != nil {
		return err
	}
	rollRad, err := c.imu.Roll(ctx)
	if err != nil {
		return err
	}
	yawRad, err := c.imu.Yaw(ctx)
	if err != nil {
		return err
	}
	gyro, err := c.imu.Gyro(ctx)
	if err != nil {
		return err
	}
	c.pitch = pitchRad * radToDeg
	c.roll = rollRad * radToDeg
	c.yaw = yawRad * radToDeg
	c.gyro = gyro

	erpm, err := c.motor.RPM(ctx)
	if err != nil {
		return err
	}
	c.erpm = erpm
	c.absERPM = math.Abs(erpm)

	duty, err := c.motor.DutyNow(ctx)
	if err != nil {
		return err
	}
	c.duty = duty

	current, err := c.motor.TotalCurrentDirectionalFiltered(ctx)
	if err != nil {
		return err
	}
	c.motorCurrent = current

	fetTemp, err := c.motor.TempFETFiltered(ctx)
	if err != nil {
		return err
	}
	c.fetTemp = fetTemp

	voltage, err := c.motor.BatteryVoltage(ctx)
	if err != nil {
		return err
	}
	c.batteryVoltage = voltage

	motorCfg, err := c.motor.Configuration(ctx)
	if err != nil {
		return err
	}
	c.motorConfig = motorCfg
	c.haveMotorConfig = true

	c.sampleYawRate()
	c.sampleRollAggregate()
	if err := c.sampleAcceleration(ctx); err != nil {
		return err
	}
	if err := c.sampleSwitchState(ctx); err != nil {
		return err
	}
	return nil
}

// sampleYawRate implements spec §4.1 step 4: wrap-around/zero-delta
// substitution, the EMA, and yaw_aggregate accumulation.
func (c *CoreState) sampleYawRate() {
	if !c.havePrevYaw {
		c.lastYaw = c.yaw
		c.havePrevYaw = true
	}

	rawChange := c.yaw - c.lastYaw
	unchanged := false
	if rawChange == 0 || math.Abs(rawChange) > 100 {
		rawChange = clampAbs(c.lastRawYawChange, 0.10)
		unchanged = true
	}
	c.lastRawYawChange = rawChange
	c.lastYaw = c.yaw

	c.yawChange = 0.8*c.yawChange + 0.2*rawChange

	sign := signOf(c.yawChange)
	if sign != 0 && sign != c.yawAggregateSign {
		c.yawAggregate = 0
		c.yawAggregateSign = sign
	}
	if math.Abs(c.yawChange) > 0.04 && !unchanged {
		c.yawAggregate += c.yawChange
	}
}

// sampleRollAggregate implements spec §4.1 step 5.
func (c *CoreState) sampleRollAggregate() {
	if math.Abs(c.roll) > 8 {
		c.rollAggregate += c.roll
	} else {
		c.rollAggregate = 0
	}
}

// sampleAcceleration implements spec §4.1 step 6: a sign-adjusted smooth
// erpm feeds a size-40 ring buffer whose running mean is `acceleration`.
func (c *CoreState) sampleAcceleration(ctx context.Context) error {
	smooth, err := c.motor.SmoothERPM(ctx)
	if err != nil {
		return err
	}
	if c.motorConfig.InvertDirection {
		smooth = -smooth
	}

	if !c.haveLastSmoothERPM {
		c.lastSmoothERPM = smooth
		c.haveLastSmoothERPM = true
	}
	accRaw := smooth - c.lastSmoothERPM
	c.lastSmoothERPM = smooth

	old := c.accelHist[c.accelIdx]
	c.accelHist[c.accelIdx] = accRaw
	c.accelIdx = (c.accelIdx + 1) % len(c.accelHist)
	if c.accelFilled < len(c.accelHist) {
		c.accelFilled++
		c.accelSum += accRaw
	} else {
		c.accelSum += accRaw - old
	}
	c.acceleration = c.accelSum / float64(c.accelFilled)
	return nil
}

// padPressed reports whether a pad reading indicates the rider's foot is
// present: the footpad switch pulls the ADC line low when pressed.
func padPressed(volts, threshold float64) bool {
	return volts < threshold
}

// sampleSwitchState implements spec §4.1 step 7 and §6.3: no-switch, single
// pad or dual-pad wiring is inferred from which fault_adc thresholds are
// configured (zero disables a pad).
func (c *CoreState) sampleSwitchState(ctx context.Context) error {
	haveLeft := c.cfg.FaultADC1 != 0 && c.padLeft != nil
	haveRight := c.cfg.FaultADC2 != 0 && c.padRight != nil

	var state SwitchState
	switch {
	case !haveLeft && !haveRight:
		state = SwitchOn
	case haveLeft && !haveRight:
		v, err := c.padLeft.ReadVolts(ctx)
		if err != nil {
			return err
		}
		c.padLeftVolts = v
		if padPressed(v, c.cfg.FaultADC1) {
			state = SwitchOn
		} else {
			state = SwitchOff
		}
	case !haveLeft && haveRight:
		v, err := c.padRight.ReadVolts(ctx)
		if err != nil {
			return err
		}
		c.padRightVolts = v
		if padPressed(v, c.cfg.FaultADC2) {
			state = SwitchOn
		} else {
			state = SwitchOff
		}
	default:
		lv, err := c.padLeft.ReadVolts(ctx)
		if err != nil {
			return err
		}
		rv, err := c.padRight.ReadVolts(ctx)
		if err != nil {
			return err
		}
		c.padLeftVolts = lv
		c.padRightVolts = rv
		leftOn := padPressed(lv, c.cfg.FaultADC1)
		rightOn := padPressed(rv, c.cfg.FaultADC2)
		switch {
		case leftOn && rightOn:
			state = SwitchOn
		case !leftOn && !rightOn:
			state = SwitchOff
		default:
			state = SwitchHalf
		}
	}
	c.switchState = state

	if state == SwitchOff && c.absERPM > c.cfg.FaultADCHalfERPM {
		if !c.switchAlertForced {
			c.switchAlertForced = true
			if c.buzzer != nil {
				return c.buzzer.Beep(ctx, true, true)
			}
		}
	} else if c.switchAlertForced {
		c.switchAlertForced = false
		if c.buzzer != nil {
			return c.buzzer.Beep(ctx, false, true)
		}
	}
	return nil
}
