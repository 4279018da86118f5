package boardcore

import "context"

// lockGestureSequence is the canonical 9-step pad sequence (spec §4.7):
// pad ON -> OFF -> adc1 -> OFF -> adc2 -> OFF -> adc1 -> OFF -> adc2.
// lockStep==i means the first i+1 events of this slice have matched;
// reaching the last index toggles the lock.
var lockGestureSequence = []padEventKind{
	padEventOn, padEventOff, padEventADC1, padEventOff, padEventADC2,
	padEventOff, padEventADC1, padEventOff, padEventADC2,
}

// currentPadEvent classifies this tick's pad reading into the alphabet the
// lock gesture is built from. ON is the ordinary footpad-present reading;
// ADC1/ADC2 are a harder press past the fault_adc1/fault_adc2 thresholds
// while the pad otherwise reads OFF — a separate zone from the binary
// on/off switch state used elsewhere.
func (c *CoreState) currentPadEvent() padEventKind {
	switch {
	case c.switchState == SwitchOn:
		return padEventOn
	case c.cfg.FaultADC1 != 0 && c.padLeftVolts > c.cfg.FaultADC1:
		return padEventADC1
	case c.cfg.FaultADC2 != 0 && c.padRightVolts > c.cfg.FaultADC2:
		return padEventADC2
	default:
		return padEventOff
	}
}

// updateLock is C8: advance the 9-step lock gesture recognizer on pad
// event edges, with a 50 ms debounce between transitions and a reset to -1
// on any out-of-sequence or too-fast event (spec §4.7, invariant I5).
func (c *CoreState) updateLock(ctx context.Context) error {
	event := c.currentPadEvent()

	if c.lockHaveLast && event == c.lockLastEvent {
		return nil
	}

	tooFast := c.lockHaveLast && c.tick-c.lockLastTick < c.msToTicks(50)

	c.lockLastEvent = event
	c.lockLastTick = c.tick
	c.lockHaveLast = true

	if tooFast {
		c.lockStep = -1
		return nil
	}

	next := c.lockStep + 1
	if next < len(lockGestureSequence) && event == lockGestureSequence[next] {
		c.lockStep = next
	} else {
		c.lockStep = -1
		return nil
	}

	if c.lockStep == len(lockGestureSequence)-1 {
		return c.toggleLock(ctx)
	}
	return nil
}

// toggleLock flips is_locked, persists it when the configured channel
// permits (spec §6.4 nrf_conf.channel==99), and emits the differentiated
// beep pattern (spec §4.7).
func (c *CoreState) toggleLock(ctx context.Context) error {
	c.isLocked = !c.isLocked
	c.lockStep = -1

	if c.cfg.lockPersistenceAllowed() && c.lockPersister != nil {
		if err := c.lockPersister.PersistLock(ctx, c.isLocked); err != nil {
			return err
		}
	}
	if c.buzzer == nil {
		return nil
	}
	if c.isLocked {
		return c.buzzer.BeepAlert(ctx, 2, true)
	}
	return c.buzzer.BeepAlert(ctx, 3, false)
}
