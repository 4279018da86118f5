package boardcore

import (
	"testing"

	"go.viam.com/test"
)

func TestSignOf(t *testing.T) {
	test.That(t, signOf(3), test.ShouldEqual, 1)
	test.That(t, signOf(-3), test.ShouldEqual, -1)
	test.That(t, signOf(0), test.ShouldEqual, 0)
}

func TestClampAbs(t *testing.T) {
	test.That(t, clampAbs(5, 3), test.ShouldEqual, 3.0)
	test.That(t, clampAbs(-5, 3), test.ShouldEqual, -3.0)
	test.That(t, clampAbs(1, 3), test.ShouldEqual, 1.0)
}

func TestApproachSnapsWithinOneStep(t *testing.T) {
	test.That(t, approach(0, 0.5, 1), test.ShouldEqual, 0.5)
}

func TestApproachStepsTowardTarget(t *testing.T) {
	test.That(t, approach(0, 10, 1), test.ShouldEqual, 1.0)
	test.That(t, approach(0, -10, 1), test.ShouldEqual, -1.0)
}

func TestApproachZeroStepSnapsImmediately(t *testing.T) {
	test.That(t, approach(0, 10, 0), test.ShouldEqual, 10.0)
}

func TestCombinedSetpointSumsShapers(t *testing.T) {
	c := &CoreState{
		setpointTargetInterp: 1,
		noseanglingInterp:    2,
		torquetiltInterp:     3,
		turntiltInterp:       4,
	}
	test.That(t, c.combinedSetpoint(), test.ShouldEqual, 10.0)
}
