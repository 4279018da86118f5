package boardcore

import (
	"testing"

	"go.viam.com/test"
)

func TestConfigValidateRequiresHz(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hz = 0
	cfg.MotorName = "m"
	cfg.IMUName = "i"
	_, _, err := cfg.Validate("config")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigValidateRequiresMotorAndIMU(t *testing.T) {
	cfg := DefaultConfig()
	_, _, err := cfg.Validate("config")
	test.That(t, err, test.ShouldNotBeNil)

	cfg.MotorName = "m"
	_, _, err = cfg.Validate("config")
	test.That(t, err, test.ShouldNotBeNil)

	cfg.IMUName = "i"
	deps, _, err := cfg.Validate("config")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"m", "i"})
}

func TestConfigValidateRequiresBoardWhenPinConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotorName = "m"
	cfg.IMUName = "i"
	cfg.BuzzerPin = "io1"
	_, _, err := cfg.Validate("config")
	test.That(t, err, test.ShouldNotBeNil)

	cfg.BoardName = "board1"
	deps, _, err := cfg.Validate("config")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"m", "i", "board1"})
}

func TestDeriveStepSizesAreSpeedOverHz(t *testing.T) {
	cfg := DefaultConfig()
	d := cfg.Derive()
	test.That(t, d.centeringStep, test.ShouldEqual, cfg.TiltbackSpeed/cfg.Hz)
	test.That(t, d.noseangleStep, test.ShouldEqual, cfg.NoseangleSpeed/cfg.Hz)
	test.That(t, d.turntiltStep, test.ShouldEqual, cfg.TurntiltSpeed/cfg.Hz)
}

func TestDeriveStartupSpeedRepurposedFraction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartupSpeed = 300.1
	d := cfg.Derive()
	test.That(t, d.reverseStopEnabled, test.ShouldBeTrue)
	test.That(t, d.stealthStart, test.ShouldBeFalse)

	cfg.StartupSpeed = 300.3
	d = cfg.Derive()
	test.That(t, d.reverseStopEnabled, test.ShouldBeTrue)
	test.That(t, d.stealthStart, test.ShouldBeTrue)

	cfg.StartupSpeed = 300.0
	d = cfg.Derive()
	test.That(t, d.reverseStopEnabled, test.ShouldBeFalse)
	test.That(t, d.stealthStart, test.ShouldBeFalse)
}

func TestDeriveBoosterDefaultsOnOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoosterAngle = 0
	cfg.BoosterRamp = -1
	d := cfg.Derive()
	test.That(t, d.centerBoostAngle, test.ShouldEqual, 3.0)
	test.That(t, d.centerBoostKpAdder, test.ShouldEqual, 0.3)
}

func TestDeriveShedFactorAndUphillStrengthDefaultsOnOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShedFactor = 0
	cfg.TorquetiltStrengthUphill = -1
	d := cfg.Derive()
	test.That(t, d.shedFactor, test.ShouldEqual, 5.0)
	test.That(t, d.torquetiltStrengthUphill, test.ShouldEqual, 0.1)

	cfg.ShedFactor = 10
	cfg.TorquetiltStrengthUphill = 0.2
	d = cfg.Derive()
	test.That(t, d.shedFactor, test.ShouldEqual, 10.0)
	test.That(t, d.torquetiltStrengthUphill, test.ShouldEqual, 0.2)
}

func TestLockPersistenceAllowedGate(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.lockPersistenceAllowed(), test.ShouldBeTrue)
	cfg.NRF.Channel = 5
	test.That(t, cfg.lockPersistenceAllowed(), test.ShouldBeFalse)
}

func TestDeriveForbidHighSpeedFullSwitchFault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FaultDelaySwitchFull = 201
	d := cfg.Derive()
	test.That(t, d.forbidHighSpeedFullSwitchFault, test.ShouldBeTrue)

	cfg.FaultDelaySwitchFull = 200
	d = cfg.Derive()
	test.That(t, d.forbidHighSpeedFullSwitchFault, test.ShouldBeFalse)
}
