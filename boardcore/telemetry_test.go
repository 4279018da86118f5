package boardcore

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestBuildSnapshotReflectsCoreState(t *testing.T) {
	c := newFaultTestCore(t)
	c.tick = 42
	c.pitch = 3
	c.erpm = 100
	c.kp = 0.9
	snap := c.buildSnapshot()
	test.That(t, snap.Tick, test.ShouldEqual, int64(42))
	test.That(t, snap.Pitch, test.ShouldEqual, 3.0)
	test.That(t, snap.ERPM, test.ShouldEqual, 100.0)
	test.That(t, snap.Kp, test.ShouldEqual, 0.9)
	test.That(t, snap.LoopPeriod, test.ShouldEqual, 1/c.cfg.Hz)
}

func TestDebugFieldCoversAllThirteenFields(t *testing.T) {
	snap := Snapshot{
		ERPM: 1, Setpoint: 2, FilteredCurrent: 3, Derivative: 4, DeltaPitch: 5,
		MotorCurrent: 6, AbsERPM: 8, LoopPeriod: 9, TickDuration: 10,
		LoopOvershoot: 11, FilteredOvershoot: 12, FilteredDt: 13,
	}
	want := map[int]float64{
		1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6, 7: 1, 8: 8,
		9: 9, 10: 10, 11: 11, 12: 12, 13: 13,
	}
	for id, w := range want {
		got, err := debugField(snap, id)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, w)
	}
}

func TestDebugFieldUnknownIDErrors(t *testing.T) {
	_, err := debugField(Snapshot{}, 99)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDoCommandMissingCommandKeyErrors(t *testing.T) {
	c := newFaultTestCore(t)
	_, err := c.DoCommand(context.Background(), map[string]interface{}{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDoCommandUnknownCommandErrors(t *testing.T) {
	c := newFaultTestCore(t)
	_, err := c.DoCommand(context.Background(), map[string]interface{}{"command": "nope"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDoCommandBalanceRenderReturnsFieldValue(t *testing.T) {
	c := newFaultTestCore(t)
	c.erpm = 250
	c.publishSnapshot()
	resp, err := c.DoCommand(context.Background(), map[string]interface{}{
		"command": cmdBalanceRender, "field": float64(1), "graph": float64(2),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp["value"], test.ShouldEqual, 250.0)
}

func TestDoCommandBalanceExperimentRejectsBadGraph(t *testing.T) {
	c := newFaultTestCore(t)
	_, err := c.DoCommand(context.Background(), map[string]interface{}{
		"command": cmdBalanceExperiment, "field": float64(1), "graph": float64(7),
	})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSampleFieldCollectsRequestedCount(t *testing.T) {
	c := newFaultTestCore(t)
	c.erpm = 10
	c.publishSnapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			time.Sleep(2 * time.Millisecond)
			c.tick++
			c.erpm = float64(10 + i)
			c.publishSnapshot()
		}
	}()

	resp, err := c.sampleField(ctx, 1, 3)
	test.That(t, err, test.ShouldBeNil)
	samples, ok := resp["samples"].([]float64)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(samples), test.ShouldEqual, 3)
	<-done
}

func TestSampleFieldRejectsNonPositiveCount(t *testing.T) {
	c := newFaultTestCore(t)
	_, err := c.sampleField(context.Background(), 1, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIntArgRejectsMissingAndNonNumeric(t *testing.T) {
	_, err := intArg(map[string]interface{}{}, "field")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = intArg(map[string]interface{}{"field": "x"}, "field")
	test.That(t, err, test.ShouldNotBeNil)
	v, err := intArg(map[string]interface{}{"field": float64(3)}, "field")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 3)
}
