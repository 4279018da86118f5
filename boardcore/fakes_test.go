package boardcore

import (
	"context"
	"sync"
	"testing"

	"go.viam.com/rdk/logging"
)

// fakeMotor is a hand-rolled Motor fake, in the same spirit as the teacher's
// fakeSpiHandle: no mocking framework, just a struct with settable fields and
// recorded calls.
type fakeMotor struct {
	mu sync.Mutex

	rpm            float64
	duty           float64
	current        float64
	smoothERPM     float64
	fetTemp        float64
	batteryVoltage float64
	conf           MotorConfiguration

	lastCurrent      float64
	lastBrakeCurrent float64
	lastOffDelay     float64
	lastSwitchingHz  float64
	currentCalls     int
	brakeCalls       int
}

func newFakeMotor() *fakeMotor {
	return &fakeMotor{
		conf: MotorConfiguration{
			CurrentMin: -40,
			CurrentMax: 40,
		},
		batteryVoltage: 50,
	}
}

func (m *fakeMotor) RPM(ctx context.Context) (float64, error) { return m.rpm, nil }
func (m *fakeMotor) DutyNow(ctx context.Context) (float64, error) { return m.duty, nil }
func (m *fakeMotor) TotalCurrentDirectionalFiltered(ctx context.Context) (float64, error) {
	return m.current, nil
}
func (m *fakeMotor) SmoothERPM(ctx context.Context) (float64, error) { return m.smoothERPM, nil }
func (m *fakeMotor) TempFETFiltered(ctx context.Context) (float64, error) { return m.fetTemp, nil }
func (m *fakeMotor) BatteryVoltage(ctx context.Context) (float64, error) {
	return m.batteryVoltage, nil
}
func (m *fakeMotor) Configuration(ctx context.Context) (MotorConfiguration, error) {
	return m.conf, nil
}

func (m *fakeMotor) SetCurrent(ctx context.Context, amps float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCurrent = amps
	m.currentCalls++
	return nil
}

func (m *fakeMotor) SetBrakeCurrent(ctx context.Context, amps float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastBrakeCurrent = amps
	m.brakeCalls++
	return nil
}

func (m *fakeMotor) SetCurrentOffDelay(ctx context.Context, seconds float64) error {
	m.lastOffDelay = seconds
	return nil
}

func (m *fakeMotor) ChangeSwitchingFrequency(ctx context.Context, hz float64) error {
	m.lastSwitchingHz = hz
	return nil
}

// fakeIMU is a hand-rolled IMU fake.
type fakeIMU struct {
	pitchRad, rollRad, yawRad float64
	gyro                     [3]float64
	startupDone              bool
}

func newFakeIMU() *fakeIMU {
	return &fakeIMU{startupDone: true}
}

func (i *fakeIMU) Pitch(ctx context.Context) (float64, error) { return i.pitchRad, nil }
func (i *fakeIMU) Roll(ctx context.Context) (float64, error)  { return i.rollRad, nil }
func (i *fakeIMU) Yaw(ctx context.Context) (float64, error)   { return i.yawRad, nil }
func (i *fakeIMU) Gyro(ctx context.Context) ([3]float64, error) { return i.gyro, nil }
func (i *fakeIMU) StartupDone(ctx context.Context) (bool, error) { return i.startupDone, nil }

// fakePadReader is a hand-rolled PadReader fake.
type fakePadReader struct {
	volts float64
}

func (p *fakePadReader) ReadVolts(ctx context.Context) (float64, error) { return p.volts, nil }

// fakeBuzzer records every beep call instead of driving real hardware.
type fakeBuzzer struct {
	beeps      []bool
	alertCalls []struct {
		count int
		long  bool
	}
}

func (b *fakeBuzzer) Beep(ctx context.Context, on bool, force bool) error {
	b.beeps = append(b.beeps, on)
	return nil
}

func (b *fakeBuzzer) BeepAlert(ctx context.Context, count int, long bool) error {
	b.alertCalls = append(b.alertCalls, struct {
		count int
		long  bool
	}{count, long})
	return nil
}

// fakeLight records on/off calls.
type fakeLight struct {
	states []bool
}

func (l *fakeLight) Set(ctx context.Context, on bool) error {
	l.states = append(l.states, on)
	return nil
}

// fakeLockPersister records persisted lock states.
type fakeLockPersister struct {
	persisted []bool
}

func (p *fakeLockPersister) PersistLock(ctx context.Context, locked bool) error {
	p.persisted = append(p.persisted, locked)
	return nil
}

// newTestCore builds a CoreState wired to fakes with a valid default config,
// for tests that only need a couple of fields overridden.
func newTestCore(t *testing.T, mutate func(*Config)) (*CoreState, *fakeMotor, *fakeIMU, *fakeBuzzer, error) {
	cfg := DefaultConfig()
	cfg.MotorName = "motor1"
	cfg.IMUName = "imu1"
	if mutate != nil {
		mutate(&cfg)
	}
	motor := newFakeMotor()
	imu := newFakeIMU()
	buzzer := &fakeBuzzer{}
	core, err := NewCoreState(cfg, Dependencies{Motor: motor, IMU: imu, Buzzer: buzzer}, logging.NewTestLogger(t))
	return core, motor, imu, buzzer, err
}
