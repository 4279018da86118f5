package boardcore

import (
	"context"

	"go.viam.com/rdk/components/board"
)

// Motor is the external motor-controller capability set (spec §6.1). It is
// deliberately narrower and more VESC-shaped than go.viam.com/rdk/components/motor.Motor:
// the control core needs raw ERPM, duty, filtered current, FET temperature and
// a brake-current/off-delay contract that the generic RDK motor API doesn't
// expose.
type Motor interface {
	// RPM returns signed electrical RPM.
	RPM(ctx context.Context) (float64, error)
	// DutyNow returns the present duty cycle in [-1, 1].
	DutyNow(ctx context.Context) (float64, error)
	// TotalCurrentDirectionalFiltered returns the direction-filtered total
	// motor current, in amps.
	TotalCurrentDirectionalFiltered(ctx context.Context) (float64, error)
	// SmoothERPM returns a smoothed, sign-adjusted ERPM reading used for
	// acceleration estimation.
	SmoothERPM(ctx context.Context) (float64, error)
	// TempFETFiltered returns the filtered FET temperature in degrees C.
	TempFETFiltered(ctx context.Context) (float64, error)
	// BatteryVoltage returns the input supply voltage in volts.
	BatteryVoltage(ctx context.Context) (float64, error)
	// Configuration returns the motor controller's own configuration.
	Configuration(ctx context.Context) (MotorConfiguration, error)
	// SetCurrent requests a target motor current in amps.
	SetCurrent(ctx context.Context, amps float64) error
	// SetBrakeCurrent requests a brake current in amps.
	SetBrakeCurrent(ctx context.Context, amps float64) error
	// SetCurrentOffDelay feeds the motor-side watchdog: the motor will coast
	// if no current/brake command arrives within this many seconds.
	SetCurrentOffDelay(ctx context.Context, seconds float64) error
	// ChangeSwitchingFrequency adjusts the motor controller's PWM switching
	// frequency.
	ChangeSwitchingFrequency(ctx context.Context, hz float64) error
}

// MotorConfiguration is the subset of the motor controller's own
// configuration the core needs to read back (spec §6.1, §4.6).
type MotorConfiguration struct {
	CurrentMin         float64
	CurrentMax         float64
	InvertDirection    bool
	IsDefaultMotorConf bool
	FETTempStart       float64
	SwitchingFreqHz    float64
	AuxOutputMode      int
}

// IMU is the external IMU capability set (spec §6.2): filtered pitch/roll/yaw
// in radians, angular rate, and a startup-done flag.
type IMU interface {
	Pitch(ctx context.Context) (float64, error)
	Roll(ctx context.Context) (float64, error)
	Yaw(ctx context.Context) (float64, error)
	Gyro(ctx context.Context) ([3]float64, error)
	StartupDone(ctx context.Context) (bool, error)
}

// PadReader is the pad/ADC front-end capability set (spec §6.3): a 12-bit
// reading scaled to volts by VReg. Implementations typically adapt
// go.viam.com/rdk/components/board.AnalogReader.
type PadReader interface {
	ReadVolts(ctx context.Context) (float64, error)
}

const (
	adcBits  = 12
	adcCount = 1 << adcBits
)

// boardAnalogPad adapts a board.AnalogReader into a PadReader using the
// configured reference voltage, the same raw-count-to-engineering-unit
// conversion shape as tmc5072's rpmToV register scaling.
type boardAnalogPad struct {
	reader board.AnalogReader
	vRef   float64
}

// NewBoardAnalogPad wraps a board analog reader as a pad-ADC port.
func NewBoardAnalogPad(reader board.AnalogReader, vRef float64) PadReader {
	return &boardAnalogPad{reader: reader, vRef: vRef}
}

func (p *boardAnalogPad) ReadVolts(ctx context.Context) (float64, error) {
	raw, err := p.reader.Read(ctx, nil)
	if err != nil {
		return 0, err
	}
	return float64(raw) / float64(adcCount) * p.vRef, nil
}

// Buzzer is the host audio port (spec §6.6): beep(on/off,force) and a
// count/long "alert" pattern.
type Buzzer interface {
	Beep(ctx context.Context, on bool, force bool) error
	BeepAlert(ctx context.Context, count int, long bool) error
}

// Light is a single host light output (brake or forward light, spec §6.6).
type Light interface {
	Set(ctx context.Context, on bool) error
}

// gpioLight adapts a board.GPIOPin into a Light.
type gpioLight struct {
	pin board.GPIOPin
}

// NewGPIOLight wraps a board GPIO pin as a Light port.
func NewGPIOLight(pin board.GPIOPin) Light {
	return &gpioLight{pin: pin}
}

func (l *gpioLight) Set(ctx context.Context, on bool) error {
	return l.pin.Set(ctx, on, nil)
}

// gpioBuzzer adapts a board.GPIOPin into a Buzzer by toggling it on/off for
// the alert pattern.
type gpioBuzzer struct {
	pin      board.GPIOPin
	sleeper  func(ctx context.Context, d float64) bool
	lastBeep bool
}

// NewGPIOBuzzer wraps a board GPIO pin as a Buzzer port. sleeper is injected
// so BeepAlert's timing can be driven by utils.SelectContextOrWait in
// production and by a fake clock in tests.
func NewGPIOBuzzer(pin board.GPIOPin, sleeper func(ctx context.Context, seconds float64) bool) Buzzer {
	return &gpioBuzzer{pin: pin, sleeper: sleeper}
}

func (b *gpioBuzzer) Beep(ctx context.Context, on bool, force bool) error {
	if !force && b.lastBeep == on {
		return nil
	}
	b.lastBeep = on
	return b.pin.Set(ctx, on, nil)
}

func (b *gpioBuzzer) BeepAlert(ctx context.Context, count int, long bool) error {
	dur := 0.08
	if long {
		dur = 0.25
	}
	for i := 0; i < count; i++ {
		if err := b.pin.Set(ctx, true, nil); err != nil {
			return err
		}
		b.sleeper(ctx, dur)
		if err := b.pin.Set(ctx, false, nil); err != nil {
			return err
		}
		if i != count-1 {
			b.sleeper(ctx, dur)
		}
	}
	b.lastBeep = false
	return nil
}

// LockPersister persists the lock flag across restarts (spec §4.7, §6.4). It
// is only invoked when the configured "channel" magic value permits
// persistence.
type LockPersister interface {
	PersistLock(ctx context.Context, locked bool) error
}

// PlotSink receives debug-stream samples (spec §6.6 commands_plot_*).
type PlotSink interface {
	Plot(ctx context.Context, fieldID int, value float64)
}

// noopPlotSink discards samples; used when no sink is configured.
type noopPlotSink struct{}

func (noopPlotSink) Plot(context.Context, int, float64) {}
