package boardcore

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestPhaseForFaultMapsEachKind(t *testing.T) {
	test.That(t, phaseForFault(FaultSwitchFull), test.ShouldEqual, PhaseFaultSwitchFull)
	test.That(t, phaseForFault(FaultSwitchHalf), test.ShouldEqual, PhaseFaultSwitchHalf)
	test.That(t, phaseForFault(FaultAnglePitch), test.ShouldEqual, PhaseFaultAnglePitch)
	test.That(t, phaseForFault(FaultAngleRoll), test.ShouldEqual, PhaseFaultAngleRoll)
	test.That(t, phaseForFault(FaultDuty), test.ShouldEqual, PhaseFaultDuty)
	test.That(t, phaseForFault(FaultReverse), test.ShouldEqual, PhaseFaultReverse)
	test.That(t, phaseForFault(FaultNone), test.ShouldEqual, PhaseRunning)
}

func TestPhaseForSetpointModeMapsTiltbacks(t *testing.T) {
	test.That(t, phaseForSetpointMode(ModeTiltbackDuty), test.ShouldEqual, PhaseRunningTiltbackDuty)
	test.That(t, phaseForSetpointMode(ModeTiltbackHV), test.ShouldEqual, PhaseRunningTiltbackHV)
	test.That(t, phaseForSetpointMode(ModeTiltbackLV), test.ShouldEqual, PhaseRunningTiltbackLV)
	test.That(t, phaseForSetpointMode(ModeCentering), test.ShouldEqual, PhaseRunning)
}

func TestRunStartupMovesToFaultStartupOnceConfigured(t *testing.T) {
	c, motor, imu, buzzer, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)
	imu.startupDone = true
	motor.conf.IsDefaultMotorConf = false
	c.haveMotorConfig = true
	c.motorConfig = motor.conf

	c.runStartup(context.Background())
	test.That(t, c.phase, test.ShouldEqual, PhaseFaultStartup)
	test.That(t, len(buzzer.alertCalls), test.ShouldEqual, 1)
}

func TestRunStartupStaysPutOnDefaultMotorConf(t *testing.T) {
	c, motor, imu, buzzer, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)
	imu.startupDone = true
	motor.conf.IsDefaultMotorConf = true
	c.haveMotorConfig = true
	c.motorConfig = motor.conf

	c.runStartup(context.Background())
	test.That(t, c.phase, test.ShouldEqual, PhaseStartup)
	test.That(t, len(buzzer.beeps), test.ShouldEqual, 1)
}

func TestRunFaultRecoversWhenCenteredAndUnlocked(t *testing.T) {
	c, _, _, _, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)
	c.phase = PhaseFaultAnglePitch
	c.pitch = 0
	c.roll = 0
	c.switchState = SwitchOn
	c.isLocked = false

	c.runFault(context.Background())
	test.That(t, c.phase, test.ShouldEqual, PhaseRunning)
	test.That(t, c.setpointMode, test.ShouldEqual, ModeCentering)
}

func TestRunFaultStaysFaultedWhenLocked(t *testing.T) {
	c, _, _, _, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)
	c.phase = PhaseFaultAnglePitch
	c.pitch = 0
	c.roll = 0
	c.switchState = SwitchOn
	c.isLocked = true

	c.runFault(context.Background())
	test.That(t, c.phase, test.ShouldEqual, PhaseFaultAnglePitch)
}

func TestRunRunningFaultDutyIsStickyAgainstPlainDuty(t *testing.T) {
	c, motor, _, _, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)
	c.phase = PhaseFaultDuty
	c.duty = 0.99 // still over fault_duty
	c.faultDutyTimer = 0
	c.tick = c.msToTicks(60)
	motor.conf.CurrentMin, motor.conf.CurrentMax = -40, 40

	c.runRunning(context.Background())
	test.That(t, c.phase, test.ShouldEqual, PhaseFaultDuty)
}

func TestRunRunningFaultDutyClearsOnDifferentFault(t *testing.T) {
	c, _, _, _, err := newTestCore(t, nil)
	test.That(t, err, test.ShouldBeNil)
	c.phase = PhaseFaultDuty
	c.duty = 0
	c.absERPM = 1000 // above fault_adc_half_erpm, so the quick-stop switch-full rule does not fire first
	c.pitch = 60
	c.faultPitchTimer = 0
	c.tick = c.msToTicks(60)

	c.runRunning(context.Background())
	test.That(t, c.phase, test.ShouldEqual, PhaseFaultAnglePitch)
}

func TestUpdateInactivityTracksOnlyOutsideFaultStartupOrLowBattery(t *testing.T) {
	c := newFaultTestCore(t)
	c.phase = PhaseFaultStartup
	c.batteryVoltage = c.cfg.TiltbackLV + 10 // above threshold, not tracked
	c.tick = 1000
	c.inactivityTimer = 0
	c.updateInactivity(context.Background())
	test.That(t, c.inactivityTimer, test.ShouldEqual, int64(1000))
}
