package boardcore

import (
	"context"
	"math"
)

// phaseForFault maps a detected fault kind to its FAULT_* phase.
func phaseForFault(f FaultKind) Phase {
	switch f {
	case FaultSwitchFull:
		return PhaseFaultSwitchFull
	case FaultSwitchHalf:
		return PhaseFaultSwitchHalf
	case FaultAnglePitch:
		return PhaseFaultAnglePitch
	case FaultAngleRoll:
		return PhaseFaultAngleRoll
	case FaultDuty:
		return PhaseFaultDuty
	case FaultReverse:
		return PhaseFaultReverse
	default:
		return PhaseRunning
	}
}

// phaseForSetpointMode maps the director's mode to the RUNNING* phase
// label (spec §4.6 "mode changes, phase label updated").
func phaseForSetpointMode(mode SetpointMode) Phase {
	switch mode {
	case ModeTiltbackDuty:
		return PhaseRunningTiltbackDuty
	case ModeTiltbackHV:
		return PhaseRunningTiltbackHV
	case ModeTiltbackLV:
		return PhaseRunningTiltbackLV
	default:
		return PhaseRunning
	}
}

// runSupervisor is C7: the top-level ride/fault state machine that gates
// whether C4...C9 run this tick (spec §4.6).
func (c *CoreState) runSupervisor(ctx context.Context) {
	switch {
	case c.phase == PhaseStartup:
		c.runStartup(ctx)
	case c.phase.IsFault():
		c.runFault(ctx)
	default:
		c.runRunning(ctx)
	}
}

// runStartup implements the STARTUP row of the spec §4.6 table: once the
// IMU reports startup done and the motor controller is not still at
// factory defaults, the board moves to FAULT_STARTUP (from which the
// normal FAULT_* -> RUNNING recovery check takes over next tick). Otherwise
// it stays in STARTUP, emitting a warning beep when the motor config is
// still at factory defaults.
func (c *CoreState) runStartup(ctx context.Context) {
	startupDone, err := c.imu.StartupDone(ctx)
	if err != nil {
		c.logger.CErrorw(ctx, "imu startup check failed", "error", err)
		return
	}

	if startupDone && c.haveMotorConfig && !c.motorConfig.IsDefaultMotorConf {
		c.resetVars()
		c.phase = PhaseFaultStartup
		if c.buzzer != nil {
			c.buzzer.BeepAlert(ctx, 1, true)
		}
		return
	}

	if startupDone && c.haveMotorConfig && c.motorConfig.IsDefaultMotorConf {
		if c.buzzer != nil {
			c.buzzer.Beep(ctx, true, false)
		}
	}
}

// runFault implements the FAULT_* rows: it always brakes, recovers to
// RUNNING when the rider re-centers the board with the switch on and the
// lock isn't engaged, runs the lock recognizer, and tracks the inactivity
// timer.
func (c *CoreState) runFault(ctx context.Context) {
	c.updateInactivity(ctx)

	if err := c.updateLock(ctx); err != nil {
		c.logger.CErrorw(ctx, "lock recognizer failed", "error", err)
	}

	recoverable := !c.isLocked &&
		math.Abs(c.pitch) < c.cfg.StartupPitchTolerance &&
		math.Abs(c.roll) < c.cfg.StartupRollTolerance &&
		c.switchState == SwitchOn

	if recoverable {
		c.resetVars()
		c.phase = PhaseRunning
		c.setpointMode = ModeCentering
	}

	if err := c.brake(ctx); err != nil {
		c.logger.CErrorw(ctx, "brake write failed", "error", err)
	}
}

// runRunning implements the RUNNING* rows: classify faults first (honoring
// FAULT_DUTY's stickiness), then run the setpoint director, the C5
// shapers, the PID core and the output actuator.
func (c *CoreState) runRunning(ctx context.Context) {
	fault := c.detectFault()

	if c.phase == PhaseFaultDuty {
		// Sticky: only a different named fault can move the phase off
		// FAULT_DUTY. A plain FaultDuty/FaultNone result keeps it pinned.
		if fault != FaultNone && fault != FaultDuty {
			c.phase = phaseForFault(fault)
		}
	} else if fault != FaultNone {
		c.phase = phaseForFault(fault)
	}

	if c.phase.IsFault() {
		if err := c.brake(ctx); err != nil {
			c.logger.CErrorw(ctx, "brake write failed", "error", err)
		}
		return
	}

	c.classifySetpoint(ctx)
	c.phase = phaseForSetpointMode(c.setpointMode)

	c.updateNoseAngle()
	c.updateTurnTilt()
	c.updateATR()

	if err := c.runPID(ctx); err != nil {
		c.logger.CErrorw(ctx, "pid core failed", "error", err)
		return
	}

	if err := c.writeOutput(ctx); err != nil {
		c.logger.CErrorw(ctx, "motor write failed", "error", err)
	}
}

// updateInactivity implements spec §4.6: in any FAULT_* except
// FAULT_STARTUP (or FAULT_STARTUP while the battery is under
// tiltback_lv+2), the inactivity timer runs and triple-beeps every 10 s
// once it exceeds the configured timeout.
func (c *CoreState) updateInactivity(ctx context.Context) {
	track := c.phase != PhaseFaultStartup || c.batteryVoltage < c.cfg.TiltbackLV+2
	if !track {
		c.inactivityTimer = c.tick
		c.lastInactivityBeep = c.tick
		return
	}

	elapsed := c.tick - c.inactivityTimer
	if elapsed <= c.secToTicks(c.cfg.InactivityTimeoutSeconds) {
		return
	}
	if c.tick-c.lastInactivityBeep >= c.secToTicks(10) {
		c.lastInactivityBeep = c.tick
		if c.buzzer != nil {
			c.buzzer.BeepAlert(ctx, 3, false)
		}
	}
}

