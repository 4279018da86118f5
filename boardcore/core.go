// Package boardcore implements the hard-realtime self-balancing motor
// controller core for a single-wheel electric vehicle: a fixed-rate control
// loop that reads an IMU and motor/battery telemetry, computes a target
// motor current that holds the board's pitch at a commanded setpoint, and
// runs the supervisory ride/fault state machine and lock gesture recognizer
// described in spec.md.
package boardcore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/operation"
	"go.viam.com/utils"
)

// CoreState is the single owned runtime state for the control loop (spec §9
// Design Notes: "Replace with a single owned CoreState held by the loop
// task"). All fields are written only by the loop task; external readers
// use Snapshot.
type CoreState struct {
	cfg     Config
	d       derived
	logger  logging.Logger
	motor   Motor
	imu     IMU
	padLeft  PadReader
	padRight PadReader
	buzzer   Buzzer
	brakeLight   Light
	forwardLight Light
	lockPersister LockPersister
	plotSink      PlotSink

	tick int64

	phase        Phase
	setpointMode SetpointMode
	switchState  SwitchState

	// C2 inputs.
	pitch, roll, yaw float64
	gyro             [3]float64
	erpm, absERPM    float64
	duty             float64
	motorCurrent     float64
	fetTemp          float64
	batteryVoltage   float64

	havePrevYaw      bool
	lastYaw          float64
	lastRawYawChange float64
	yawChange        float64
	yawAggregate     float64
	yawAggregateSign int

	motorConfig     MotorConfiguration
	haveMotorConfig bool

	rollAggregate float64

	haveLastSmoothERPM bool
	lastSmoothERPM     float64
	acceleration       float64
	accelHist          [40]float64
	accelIdx           int
	accelFilled        int
	accelSum           float64

	switchAlertForced bool
	padLeftVolts      float64
	padRightVolts     float64

	// C3 faults.
	faultPitchTimer      int64
	faultRollTimer       int64
	faultDutyTimer       int64
	faultSwitchHalfTimer      int64
	faultSwitchFullTimer      int64
	faultSwitchFullGatedTimer int64
	reverseTimer              int64
	faultDutySticky           bool

	// C4 setpoint director.
	setpointTarget       float64
	setpointTargetInterp float64
	reverseTotalERPM     float64
	hvDebounceTimer      int64
	hvDebounceActive     bool
	centeringReachedAt   int64
	centeringReached     bool

	// C5 shapers.
	noseanglingInterp float64
	noseanglingTarget float64

	torquetiltInterp       float64
	torquetiltTarget       float64
	atrCurrentFilter       Biquad
	accelGap               float64
	accelGapAggregate      float64
	accelGapAggregateSign  int
	staticClimb            bool

	turntiltInterp float64
	turntiltTarget float64
	cutback        bool

	// C6 PID.
	lastProportional float64
	integral    float64
	lastPitch   float64
	dFilter     PT1Filter
	pidValue    float64
	pidOutput   float64
	kp, ki, kd  float64
	currentLimiting bool
	startWindowBeginTick int64
	startWindowActive    bool

	// C7 supervisor.
	inactivityTimer    int64
	inactivityBeeped   bool
	lastInactivityBeep int64

	// C8 lock recognizer.
	lockStep      int
	isLocked      bool
	lockLastEvent padEventKind
	lockLastTick  int64
	lockHaveLast  bool

	// C9 output actuator.
	brakeTimeoutTick int64
	brakeTimeoutSet  bool

	// Soft-start click modulation (C9, spec §4.5 "engage click").
	clickTicksRemaining int

	// loop scheduling (spec §5, debug fields 9-13).
	loopOvershootFilter PT1Filter
	dtFilter            PT1Filter
	lastTickDuration    float64
	lastOvershootRaw    float64
	lastOvershoot       float64
	lastFilteredDt      float64

	opMgr *operation.SingleOperationManager

	snapshot atomic.Pointer[Snapshot]
}

// Dependencies bundles the external collaborators the core needs (spec §6).
type Dependencies struct {
	Motor         Motor
	IMU           IMU
	PadLeft       PadReader
	PadRight      PadReader
	Buzzer        Buzzer
	BrakeLight    Light
	ForwardLight  Light
	LockPersister LockPersister
	PlotSink      PlotSink
}

// NewCoreState builds a CoreState from a Config and its Dependencies,
// equivalent to the spec's configure(): all runtime state is created here,
// derived values are computed once, and the board starts in STARTUP.
func NewCoreState(cfg Config, deps Dependencies, logger logging.Logger) (*CoreState, error) {
	if _, _, err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	if deps.Motor == nil || deps.IMU == nil {
		return nil, errors.New("boardcore: motor and imu dependencies are required")
	}
	plot := deps.PlotSink
	if plot == nil {
		plot = noopPlotSink{}
	}

	c := &CoreState{
		cfg:           cfg,
		d:             cfg.Derive(),
		logger:        logger,
		motor:         deps.Motor,
		imu:           deps.IMU,
		padLeft:       deps.PadLeft,
		padRight:      deps.PadRight,
		buzzer:        deps.Buzzer,
		brakeLight:    deps.BrakeLight,
		forwardLight:  deps.ForwardLight,
		lockPersister: deps.LockPersister,
		plotSink:      plot,
		phase:         PhaseStartup,
		setpointMode:  ModeCentering,
		lockStep:      -1,
	}
	c.dFilter = NewPT1Filter(clampPositive(cfg.DFilterHz, 10), cfg.Hz)
	c.atrCurrentFilter = NewBiquad(BiquadLowpass, 4, 0.707, cfg.Hz)
	loopFilterHz := cfg.Hz / 20
	if loopFilterHz <= 0 {
		loopFilterHz = 1
	}
	c.loopOvershootFilter = NewPT1Filter(loopFilterHz, cfg.Hz)
	c.dtFilter = NewPT1Filter(loopFilterHz, cfg.Hz)
	c.opMgr = operation.NewSingleOperationManager()
	c.resetVars()
	c.publishSnapshot()
	return c, nil
}

func clampPositive(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

// msToTicks converts a millisecond duration to a tick count at the
// configured Hz.
func (c *CoreState) msToTicks(ms float64) int64 {
	return int64(ms * c.cfg.Hz / 1000)
}

// secToTicks converts a second duration to a tick count at the configured Hz.
func (c *CoreState) secToTicks(s float64) int64 {
	return int64(s * c.cfg.Hz)
}

// resetVars runs on every transition into RUNNING from STARTUP or fault
// recovery (spec §3 "Lifecycle"). Entering REVERSESTOP does not call it;
// updateGains zeroes the integral on every REVERSESTOP tick instead.
func (c *CoreState) resetVars() {
	c.integral = 0
	c.lastPitch = c.pitch
	c.dFilter.Reset()
	c.pidValue = 0
	c.kp = c.cfg.Kp
	c.ki = c.cfg.Ki
	c.kd = c.cfg.Kd
	c.currentLimiting = false

	c.setpointTarget = 0
	c.setpointTargetInterp = c.pitch
	c.reverseTotalERPM = 0
	c.hvDebounceActive = false
	c.centeringReached = false

	c.noseanglingInterp = 0
	c.noseanglingTarget = 0
	c.torquetiltInterp = 0
	c.torquetiltTarget = 0
	c.accelGap = 0
	c.accelGapAggregate = 0
	c.accelGapAggregateSign = 0
	c.staticClimb = false

	c.turntiltInterp = 0
	c.turntiltTarget = 0
	c.cutback = false
	c.yawAggregate = 0
	c.yawAggregateSign = 0
	c.rollAggregate = 0

	c.startWindowActive = true
	c.startWindowBeginTick = c.tick

	c.brakeTimeoutSet = false
	c.clickTicksRemaining = c.cfg.ClickCurrentTicks

	now := c.tick
	c.faultPitchTimer = now
	c.faultRollTimer = now
	c.faultDutyTimer = now
	c.faultSwitchHalfTimer = now
	c.faultSwitchFullTimer = now
	c.faultSwitchFullGatedTimer = now
	c.reverseTimer = now
	c.faultDutySticky = false

	c.inactivityTimer = now
}

// Tick runs exactly one iteration of the control loop: C2 -> (C3|C4) -> C5
// -> C6 -> C9, wrapped by the C7 supervisor, with C8 running inside fault
// states (spec §2 "Data flow per tick").
func (c *CoreState) Tick(ctx context.Context) error {
	if err := c.sampleInputs(ctx); err != nil {
		return err
	}

	c.runSupervisor(ctx)

	c.tick++
	c.publishSnapshot()
	return nil
}

// publishSnapshot atomically swaps the published telemetry snapshot (spec §5
// "external readers perform atomic snapshot reads of scalar fields").
func (c *CoreState) publishSnapshot() {
	s := c.buildSnapshot()
	c.snapshot.Store(&s)
}

// Snapshot returns the most recently published telemetry snapshot. Safe to
// call concurrently with the loop task.
func (c *CoreState) Snapshot() Snapshot {
	p := c.snapshot.Load()
	if p == nil {
		return Snapshot{}
	}
	return *p
}

// Run executes the fixed-rate loop until ctx is canceled (spec §5). The
// terminal sleep is loop_period minus an EMA-filtered overshoot, reproducing
// a fixed-period timer plus EMA correction rather than busy-waiting.
func (c *CoreState) Run(ctx context.Context) error {
	period := time.Second / time.Duration(c.cfg.Hz)
	for {
		if ctx.Err() != nil {
			return c.shutdown(ctx)
		}
		start := time.Now()

		if err := c.Tick(ctx); err != nil {
			c.logger.CError(ctx, err)
		}

		elapsed := time.Since(start)
		c.lastTickDuration = elapsed.Seconds()
		c.lastOvershootRaw = elapsed.Seconds() - period.Seconds()
		c.lastOvershoot = c.loopOvershootFilter.Apply(c.lastOvershootRaw)
		c.lastFilteredDt = c.dtFilter.Apply(c.lastTickDuration)

		sleep := period - time.Duration(c.lastOvershoot*float64(time.Second))
		if sleep < 0 {
			sleep = 0
		}
		if !utils.SelectContextOrWait(ctx, sleep.Seconds()) {
			return c.shutdown(ctx)
		}
	}
}

// shutdown issues brake_off, beep_off(force) and brake() on loop exit (spec
// §5 "Cancellation").
func (c *CoreState) shutdown(ctx context.Context) error {
	var err error
	if c.brakeLight != nil {
		err = multierr.Append(err, c.brakeLight.Set(ctx, false))
	}
	if c.buzzer != nil {
		err = multierr.Append(err, c.buzzer.Beep(ctx, false, true))
	}
	err = multierr.Append(err, c.brake(ctx))
	return err
}
