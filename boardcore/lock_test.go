package boardcore

import (
	"context"
	"testing"

	"go.viam.com/test"
)

// setPadEvent drives the CoreState fields currentPadEvent reads so a test can
// feed a specific event without wiring real PadReader ports.
func setPadEvent(c *CoreState, ev padEventKind) {
	switch ev {
	case padEventOn:
		c.switchState = SwitchOn
	case padEventADC1:
		c.switchState = SwitchOff
		c.padLeftVolts = c.cfg.FaultADC1 + 1
		c.padRightVolts = 0
	case padEventADC2:
		c.switchState = SwitchOff
		c.padLeftVolts = 0
		c.padRightVolts = c.cfg.FaultADC2 + 1
	default: // padEventOff
		c.switchState = SwitchOff
		c.padLeftVolts = 0
		c.padRightVolts = 0
	}
}

func TestCurrentPadEventClassification(t *testing.T) {
	c := newFaultTestCore(t)
	setPadEvent(c, padEventOn)
	test.That(t, c.currentPadEvent(), test.ShouldEqual, padEventOn)
	setPadEvent(c, padEventADC1)
	test.That(t, c.currentPadEvent(), test.ShouldEqual, padEventADC1)
	setPadEvent(c, padEventADC2)
	test.That(t, c.currentPadEvent(), test.ShouldEqual, padEventADC2)
	setPadEvent(c, padEventOff)
	test.That(t, c.currentPadEvent(), test.ShouldEqual, padEventOff)
}

func TestUpdateLockCompletesNineStepGestureAndToggles(t *testing.T) {
	c, _, _, buzzer, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)

	var tick int64
	for _, ev := range lockGestureSequence {
		setPadEvent(c, ev)
		c.tick = tick
		test.That(t, c.updateLock(context.Background()), test.ShouldBeNil)
		tick += c.msToTicks(60)
	}

	test.That(t, c.isLocked, test.ShouldBeTrue)
	test.That(t, c.lockStep, test.ShouldEqual, -1)
	test.That(t, len(buzzer.alertCalls), test.ShouldEqual, 1)
}

func TestUpdateLockResetsOnTooFastTransition(t *testing.T) {
	c := newFaultTestCore(t)
	setPadEvent(c, padEventOn)
	c.tick = 0
	test.That(t, c.updateLock(context.Background()), test.ShouldBeNil)
	test.That(t, c.lockStep, test.ShouldEqual, 0)

	setPadEvent(c, padEventOff)
	c.tick = c.msToTicks(10) // well under the 50ms debounce
	test.That(t, c.updateLock(context.Background()), test.ShouldBeNil)
	test.That(t, c.lockStep, test.ShouldEqual, -1)
}

func TestUpdateLockResetsOnOutOfSequenceEvent(t *testing.T) {
	c := newFaultTestCore(t)
	setPadEvent(c, padEventOn)
	c.tick = 0
	test.That(t, c.updateLock(context.Background()), test.ShouldBeNil)

	setPadEvent(c, padEventADC1) // sequence expects Off next, not ADC1
	c.tick = c.msToTicks(100)
	test.That(t, c.updateLock(context.Background()), test.ShouldBeNil)
	test.That(t, c.lockStep, test.ShouldEqual, -1)
}

func TestToggleLockPersistsOnlyWhenChannelAllows(t *testing.T) {
	c, _, _, _, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)
	persister := &fakeLockPersister{}
	c.lockPersister = persister
	c.cfg.NRF.Channel = 1 // not the magic 99

	test.That(t, c.toggleLock(context.Background()), test.ShouldBeNil)
	test.That(t, len(persister.persisted), test.ShouldEqual, 0)

	c.cfg.NRF.Channel = 99
	test.That(t, c.toggleLock(context.Background()), test.ShouldBeNil)
	test.That(t, len(persister.persisted), test.ShouldEqual, 1)
}
