package boardcore

import (
	"context"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Snapshot is the external-reader view of the control loop's state (spec §5:
// "external readers perform atomic snapshot reads of scalar fields"). It is
// published once per tick and read without locking via CoreState.Snapshot.
type Snapshot struct {
	Tick int64

	Phase        Phase
	SetpointMode SetpointMode
	SwitchState  SwitchState

	Pitch, Roll, Yaw float64
	ERPM, AbsERPM    float64
	Duty             float64
	MotorCurrent     float64
	FETTemp          float64
	BatteryVoltage   float64

	Setpoint   float64
	NoseAngle  float64
	Torquetilt float64
	Turntilt   float64

	FilteredCurrent float64
	Derivative      float64
	DeltaPitch      float64

	Kp, Ki, Kd      float64
	PIDOutput       float64
	CurrentLimiting bool

	IsLocked bool

	LoopPeriod        float64
	TickDuration      float64
	LoopOvershoot     float64
	FilteredOvershoot float64
	FilteredDt        float64
}

// buildSnapshot renders the current CoreState into its published form.
func (c *CoreState) buildSnapshot() Snapshot {
	return Snapshot{
		Tick: c.tick,

		Phase:        c.phase,
		SetpointMode: c.setpointMode,
		SwitchState:  c.switchState,

		Pitch: c.pitch,
		Roll:  c.roll,
		Yaw:   c.yaw,

		ERPM:    c.erpm,
		AbsERPM: c.absERPM,
		Duty:    c.duty,

		MotorCurrent:   c.motorCurrent,
		FETTemp:        c.fetTemp,
		BatteryVoltage: c.batteryVoltage,

		Setpoint:   c.combinedSetpoint(),
		NoseAngle:  c.noseanglingInterp,
		Torquetilt: c.torquetiltInterp,
		Turntilt:   c.turntiltInterp,

		FilteredCurrent: c.atrCurrentFilter.Value(),
		Derivative:      c.dFilter.Value(),
		DeltaPitch:      c.pitch - c.lastPitch,

		Kp: c.kp, Ki: c.ki, Kd: c.kd,
		PIDOutput:       c.pidOutput,
		CurrentLimiting: c.currentLimiting,

		IsLocked: c.isLocked,

		LoopPeriod:        1 / c.cfg.Hz,
		TickDuration:      c.lastTickDuration,
		LoopOvershoot:     c.lastOvershootRaw,
		FilteredOvershoot: c.lastOvershoot,
		FilteredDt:        c.lastFilteredDt,
	}
}

// debugField resolves one of the spec §6.5 debug field IDs (1-13) against a
// published Snapshot, never against live CoreState fields: DoCommand runs on
// a caller goroutine concurrently with the loop task, and Snapshot is the
// core's only race-free read surface (spec §5). Field 1 ("motor position")
// has no odometry port in this core's Motor interface (spec §6.1 deliberately
// narrows it to the VESC-shaped telemetry set); erpm is substituted as the
// closest available motion signal and documented here rather than silently
// misreported.
func debugField(s Snapshot, id int) (float64, error) {
	switch id {
	case 1:
		return s.ERPM, nil
	case 2:
		return s.Setpoint, nil
	case 3:
		return s.FilteredCurrent, nil
	case 4:
		return s.Derivative, nil
	case 5:
		return s.DeltaPitch, nil
	case 6:
		return s.MotorCurrent, nil
	case 7:
		return s.ERPM, nil
	case 8:
		return s.AbsERPM, nil
	case 9:
		return s.LoopPeriod, nil
	case 10:
		return s.TickDuration, nil
	case 11:
		return s.LoopOvershoot, nil
	case 12:
		return s.FilteredOvershoot, nil
	case 13:
		return s.FilteredDt, nil
	default:
		return 0, errors.Errorf("boardcore: unknown debug field %d", id)
	}
}

// DoCommand() related constants (spec §6.5 CLI tokens).
const (
	cmdKey = "command"

	cmdBalanceRender     = "app_balance_render"
	cmdBalanceSample     = "app_balance_sample"
	cmdBalanceExperiment = "app_balance_experiment"

	argField = "field"
	argGraph = "graph"
	argCount = "count"
)

// DoCommand implements the three app_balance_* CLI tokens (spec §6.5) on
// top of the published Snapshot/debug-field plumbing, following the
// command-dispatch shape of the teacher's Motor.DoCommand.
func (c *CoreState) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	name, ok := cmd[cmdKey]
	if !ok {
		return nil, errors.Errorf("missing %s value", cmdKey)
	}
	switch name {
	case cmdBalanceRender:
		field, err := intArg(cmd, argField)
		if err != nil {
			return nil, err
		}
		graph, _ := intArg(cmd, argGraph)
		value, err := debugField(c.Snapshot(), field)
		if err != nil {
			return nil, err
		}
		c.plotSink.Plot(ctx, field, value)
		return map[string]interface{}{"field": field, "graph": graph, "value": value}, nil

	case cmdBalanceSample:
		field, err := intArg(cmd, argField)
		if err != nil {
			return nil, err
		}
		count, err := intArg(cmd, argCount)
		if err != nil {
			return nil, err
		}
		return c.sampleField(ctx, field, count)

	case cmdBalanceExperiment:
		field, err := intArg(cmd, argField)
		if err != nil {
			return nil, err
		}
		graph, err := intArg(cmd, argGraph)
		if err != nil {
			return nil, err
		}
		if graph < 1 || graph > 6 {
			return nil, errors.Errorf("graph must be in [1,6], got %d", graph)
		}
		value, err := debugField(c.Snapshot(), field)
		if err != nil {
			return nil, err
		}
		c.plotSink.Plot(ctx, field, value)
		return map[string]interface{}{"field": field, "graph": graph, "value": value}, nil

	default:
		return nil, errors.Errorf("no such command: %v", name)
	}
}

// sampleField blocks, via the loop's SingleOperationManager, until count
// ticks have passed, collecting one debug_field reading per tick
// (app_balance_sample's "wait for N samples" semantics). Cancellation
// through the operation manager lets a second app_balance_sample call
// preempt one still in flight, the same single-operation contract the
// teacher uses for GoTo/homing.
func (c *CoreState) sampleField(ctx context.Context, field, count int) (map[string]interface{}, error) {
	if count <= 0 {
		return nil, errors.Errorf("count must be positive, got %d", count)
	}
	ctx, done := c.opMgr.New(ctx)
	defer done()

	samples := make([]float64, 0, count)
	first := c.Snapshot()
	lastTick := first.Tick
	period := first.LoopPeriod
	if period <= 0 {
		period = 0.01
	}
	for len(samples) < count {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		snap := c.Snapshot()
		if snap.Tick == lastTick {
			if !utils.SelectContextOrWait(ctx, period) {
				return nil, ctx.Err()
			}
			continue
		}
		lastTick = snap.Tick
		value, err := debugField(snap, field)
		if err != nil {
			return nil, err
		}
		samples = append(samples, value)
	}
	return map[string]interface{}{"field": field, "samples": samples}, nil
}

func intArg(cmd map[string]interface{}, key string) (int, error) {
	raw, ok := cmd[key]
	if !ok {
		return 0, errors.Errorf("need %s value", key)
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, errors.Errorf("%s value must be numeric", key)
	}
	return int(f), nil
}
