package boardcore

import "context"

// brakeTimeoutSeconds bounds how long brake() keeps reasserting brake
// current after the board was last moving; spec §4.8 names the conversion
// "S2ST(cfg)" without naming the source config field, so this core uses a
// fixed one-second timeout, matching the VESC float package's default.
const brakeTimeoutSeconds = 1.0

// writeOutput is C9's normal-ride path: it feeds the motor watchdog with a
// 20-loop-period off-delay and writes the PID output as the requested
// current (spec §4.8, §5 "motor-side watchdog is fed ... 20·loop_period").
func (c *CoreState) writeOutput(ctx context.Context) error {
	loopPeriod := 1 / c.cfg.Hz
	if err := c.motor.SetCurrentOffDelay(ctx, 20*loopPeriod); err != nil {
		return err
	}
	return c.motor.SetCurrent(ctx, c.pidOutput)
}

// brake is C9's fault-state path: brake current with a brake-timeout that
// suppresses further output once the board has been stationary long enough
// (spec §4.8).
func (c *CoreState) brake(ctx context.Context) error {
	if c.absERPM > 1 {
		c.brakeTimeoutTick = c.tick + c.secToTicks(brakeTimeoutSeconds)
		c.brakeTimeoutSet = true
	}
	if c.brakeTimeoutSet && c.tick > c.brakeTimeoutTick {
		return nil
	}
	return c.motor.SetBrakeCurrent(ctx, c.cfg.BrakeCurrent)
}
