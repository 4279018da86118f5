package boardcore

import (
	"math"

	"github.com/pkg/errors"
)

// NRFConf mirrors the VESC nRF24 configuration block whose fields are
// repurposed (spec §6.4) to gate lock persistence and the boost-threshold
// override.
type NRFConf struct {
	Channel      int     `json:"channel,omitempty"`
	RetryDelayUS float64 `json:"retry_delay_us,omitempty"`
	Retries      int     `json:"retries,omitempty"`
	Address      [3]byte `json:"address,omitempty"`
}

// Config holds every tunable named in spec.md §3 and the wire-compatible
// repurposed fields of §6.4. JSON-tagged and validated the way
// tmc5072.Config is: a flat struct plus a Validate method, construction
// through resource.NativeConfig when wired as an RDK component.
type Config struct {
	// Dependency attachments (spec §6): the motor and IMU are required
	// named components; the board supplies GPIO pins for the buzzer/lights
	// and analog channels for the foot pads, all optional (spec §6.3's
	// no-switch/single-pad/dual-pad wiring).
	MotorName      string `json:"motor,omitempty"`
	IMUName        string `json:"imu,omitempty"`
	BoardName      string `json:"board,omitempty"`
	PadLeftPin     string `json:"pad_left_pin,omitempty"`
	PadRightPin    string `json:"pad_right_pin,omitempty"`
	BuzzerPin      string `json:"buzzer_pin,omitempty"`
	BrakeLightPin  string `json:"brake_light_pin,omitempty"`
	ForwardLightPin string `json:"forward_light_pin,omitempty"`

	// Loop timing.
	Hz float64 `json:"hz,omitempty"`

	// Startup / switch thresholds.
	StartupPitchTolerance float64 `json:"startup_pitch_tolerance,omitempty"`
	StartupRollTolerance  float64 `json:"startup_roll_tolerance,omitempty"`
	FaultADC1             float64 `json:"fault_adc1,omitempty"`
	FaultADC2             float64 `json:"fault_adc2,omitempty"`
	FaultADCHalfERPM      float64 `json:"fault_adc_half_erpm,omitempty"`
	VReg                  float64 `json:"v_reg,omitempty"`

	// Fault thresholds/delays.
	FaultPitch           float64 `json:"fault_pitch,omitempty"`
	FaultRoll            float64 `json:"fault_roll,omitempty"`
	FaultDuty            float64 `json:"fault_duty,omitempty"`
	FaultDelayPitch      float64 `json:"fault_delay_pitch_ms,omitempty"`
	FaultDelayRoll       float64 `json:"fault_delay_roll_ms,omitempty"`
	FaultDelayDuty       float64 `json:"fault_delay_duty_ms,omitempty"`
	FaultDelaySwitchHalf float64 `json:"fault_delay_switch_half_ms,omitempty"`
	// FaultDelaySwitchFull is the full-switch fault delay in ms; in addition,
	// a value mod 10 == 1 is repurposed (spec §6.4) to forbid high-speed
	// full-switch faults.
	FaultDelaySwitchFull float64 `json:"fault_delay_switch_full_ms,omitempty"`

	ReverseTolerance float64 `json:"reverse_tolerance,omitempty"`

	// Tiltback thresholds/angles.
	TiltbackDuty      float64 `json:"tiltback_duty,omitempty"`
	TiltbackDutyAngle float64 `json:"tiltback_duty_angle,omitempty"`
	TiltbackDutySpeed float64 `json:"tiltback_duty_speed,omitempty"`
	TiltbackHV        float64 `json:"tiltback_hv,omitempty"`
	TiltbackHVAngle   float64 `json:"tiltback_hv_angle,omitempty"`
	TiltbackLV        float64 `json:"tiltback_lv,omitempty"`
	TiltbackLVAngle   float64 `json:"tiltback_lv_angle,omitempty"`
	TiltbackSpeed     float64 `json:"tiltback_speed,omitempty"`
	LTempFETStart     float64 `json:"l_temp_fet_start,omitempty"`

	// Nose angling.
	TiltbackVariable         float64 `json:"tiltback_variable,omitempty"`
	TiltbackVariableMax      float64 `json:"tiltback_variable_max,omitempty"`
	TiltbackVariableMaxERPM  float64 `json:"tiltback_variable_max_erpm,omitempty"`
	TiltbackConstant         float64 `json:"tiltback_constant,omitempty"`
	TiltbackConstantERPM     float64 `json:"tiltback_constant_erpm,omitempty"`
	NoseangleSpeed           float64 `json:"noseangle_speed,omitempty"`

	// Torque tilt (ATR).
	TorquetiltStrength    float64 `json:"torquetilt_strength,omitempty"`
	TorquetiltStrengthUphill float64 `json:"tt_strength_uphill,omitempty"`
	TorquetiltAngleLimit  float64 `json:"torquetilt_angle_limit,omitempty"`
	TorquetiltStartCurrent float64 `json:"torquetilt_start_current,omitempty"`
	TorquetiltOnSpeed     float64 `json:"torquetilt_on_speed,omitempty"`
	TorquetiltOffSpeed    float64 `json:"torquetilt_off_speed,omitempty"`

	// ShedFactor is how many degrees of FET headroom before l_temp_fet_start
	// the output current begins linearly shedding toward zero (spec §9 Open
	// Question #1).
	ShedFactor float64 `json:"shedfactor,omitempty"`

	// Turn tilt.
	TurntiltStrength      float64 `json:"turntilt_strength,omitempty"`
	TurntiltAngleLimit    float64 `json:"turntilt_angle_limit,omitempty"`
	TurntiltStartAngle    float64 `json:"turntilt_start_angle,omitempty"`
	TurntiltStartERPM     float64 `json:"turntilt_start_erpm,omitempty"`
	TurntiltERPMBoost     float64 `json:"turntilt_erpm_boost,omitempty"`
	TurntiltERPMBoostEnd  float64 `json:"turntilt_erpm_boost_end,omitempty"`
	TurntiltSpeed         float64 `json:"turntilt_speed,omitempty"`

	// PID.
	Kp               float64 `json:"kp,omitempty"`
	Ki               float64 `json:"ki,omitempty"`
	Kd               float64 `json:"kd,omitempty"`
	DFilterHz        float64 `json:"d_filter_hz,omitempty"`
	AccelBoostThresh  float64 `json:"accel_boost_threshold,omitempty"`
	AccelBoostThresh2 float64 `json:"accel_boost_threshold2,omitempty"`
	AccelBoostIntensity float64 `json:"accel_boost_intensity,omitempty"`

	BrakeCurrent float64 `json:"brake_current,omitempty"`

	CurrentMinHeadroom float64 `json:"current_min_headroom,omitempty"`
	CurrentMaxHeadroom float64 `json:"current_max_headroom,omitempty"`

	InactivityTimeoutSeconds float64 `json:"inactivity_timeout_seconds,omitempty"`

	StartGraceMS       float64 `json:"start_grace_ms,omitempty"`
	StartCenterDelayMS float64 `json:"start_center_delay_ms,omitempty"`
	SoftStartEnabled   bool    `json:"soft_start_enabled,omitempty"`
	ClickCurrentTicks  int     `json:"click_current_ticks,omitempty"`

	MultiESC bool    `json:"multi_esc,omitempty"`
	NRF      NRFConf `json:"nrf_conf,omitempty"`

	// StartupSpeed's fractional part is repurposed (spec §6.4) to enable
	// reverse-stop (.1), stealth start (.2), or both (.3).
	StartupSpeed float64 `json:"startup_speed,omitempty"`

	// Repurposed fields (spec §6.4) — preserved bit-for-bit on upgrade.
	RollSteerERPMKp     float64 `json:"roll_steer_erpm_kp,omitempty"`
	YawCurrentClamp     float64 `json:"yaw_current_clamp,omitempty"`
	YawKi               float64 `json:"yaw_ki,omitempty"`
	YawKp               float64 `json:"yaw_kp,omitempty"`
	YawKd               float64 `json:"yaw_kd,omitempty"`
	BoosterAngle        float64 `json:"booster_angle,omitempty"`
	BoosterRamp         float64 `json:"booster_ramp,omitempty"`
	BoosterCurrent      float64 `json:"booster_current,omitempty"`
	KdBiquadLowpass     float64 `json:"kd_biquad_lowpass,omitempty"`
	KdBiquadHighpass    float64 `json:"kd_biquad_highpass,omitempty"`
	KdPT1HighpassFreq   float64 `json:"kd_pt1_highpass_frequency,omitempty"`
	RollSteerKp         float64 `json:"roll_steer_kp,omitempty"`
}

// Validate clamps nothing (clamping happens in Derive, per spec §7 "out of
// range configuration is clamped at configure() time and silently
// accepted") and only rejects structurally required fields, matching the
// shape of tmc5072.Config.Validate.
func (c *Config) Validate(path string) ([]string, []string, error) {
	if c.Hz <= 0 {
		return nil, nil, errors.Errorf("%s: hz must be positive", path)
	}
	if c.MotorName == "" {
		return nil, nil, errors.Errorf("%s: motor is required", path)
	}
	if c.IMUName == "" {
		return nil, nil, errors.Errorf("%s: imu is required", path)
	}
	deps := []string{c.MotorName, c.IMUName}
	if c.BoardName != "" {
		deps = append(deps, c.BoardName)
	}
	needsBoard := c.PadLeftPin != "" || c.PadRightPin != "" || c.BuzzerPin != "" ||
		c.BrakeLightPin != "" || c.ForwardLightPin != ""
	if needsBoard && c.BoardName == "" {
		return nil, nil, errors.Errorf("%s: board is required when any pin is configured", path)
	}
	return deps, nil, nil
}

// derived holds every value the runtime loop actually reads: step sizes
// computed as speed/Hz (spec invariant I6), and the repurposed-field
// mappings resolved into named values.
type derived struct {
	hz float64

	centeringStep     float64
	noseangleStep     float64
	torquetiltOnStep  float64
	torquetiltOffStep float64
	turntiltStep      float64
	tiltbackDutyStep  float64
	tiltbackStep      float64

	reverseStopEnabled bool
	stealthStart       bool

	forbidHighSpeedFullSwitchFault bool

	centerJerkDurationMS float64
	centerJerkStrength   float64
	yawAggregateTarget   float64
	downhillStrengthPct  float64
	accelFactor          float64
	accelFactor2         float64

	centerBoostAngle     float64
	centerBoostKpAdder   float64
	centerBoostIntensity float64

	shedFactor               float64
	torquetiltStrengthUphill float64

	integralTTImpactDownhill float64
	integralTTImpactUphill   float64
	tttBrakeRatio            float64

	maxBrakeAmps   float64
	maxDerivative  float64

	clickCurrent float64

	boostThresholdOverrideEnabled bool
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Derive computes every derived/repurposed value from the raw Config,
// applying the §9 Open-Question guard conditions literally: out-of-range
// inputs to shedfactor/center_boost_kp_adder/tt_strength_uphill-equivalent
// fields produce the documented hard-coded defaults below, not a clamp to
// the nearest bound.
func (c *Config) Derive() derived {
	d := derived{hz: c.Hz}

	speed := func(v float64) float64 {
		if v < 0 {
			v = 0
		}
		return v / c.Hz
	}

	d.centeringStep = speed(c.TiltbackSpeed)
	d.noseangleStep = speed(c.NoseangleSpeed)
	d.torquetiltOnStep = speed(c.TorquetiltOnSpeed)
	d.torquetiltOffStep = speed(c.TorquetiltOffSpeed)
	d.turntiltStep = speed(c.TurntiltSpeed)
	d.tiltbackDutyStep = speed(c.TiltbackDutySpeed)
	d.tiltbackStep = speed(c.TiltbackSpeed)

	frac := c.StartupSpeed - math.Trunc(c.StartupSpeed)
	frac = math.Round(frac*10) / 10
	d.reverseStopEnabled = frac == 0.1 || frac == 0.3
	d.stealthStart = frac == 0.2 || frac == 0.3

	d.forbidHighSpeedFullSwitchFault = math.Mod(c.FaultDelaySwitchFull, 10) == 1

	d.centerJerkDurationMS = c.RollSteerERPMKp
	d.centerJerkStrength = c.YawCurrentClamp
	d.yawAggregateTarget = c.YawKi
	d.downhillStrengthPct = c.YawKp
	d.accelFactor = c.YawKd
	d.accelFactor2 = c.YawKd * 1.3

	// Open Question #1: preserve the guard literally. "Out of range" here
	// means non-positive; the hard-coded defaults below (distinct from the
	// raw input) are what the original firmware substitutes.
	d.centerBoostAngle = c.BoosterAngle
	if d.centerBoostAngle <= 0 {
		d.centerBoostAngle = 3
	}
	d.centerBoostKpAdder = c.BoosterRamp
	if d.centerBoostKpAdder <= 0 {
		d.centerBoostKpAdder = 0.3
	}
	d.centerBoostIntensity = c.BoosterCurrent
	if d.centerBoostIntensity <= 0 {
		d.centerBoostIntensity = 0
	}

	d.shedFactor = c.ShedFactor
	if d.shedFactor <= 0 {
		d.shedFactor = 5
	}
	d.torquetiltStrengthUphill = c.TorquetiltStrengthUphill
	if d.torquetiltStrengthUphill <= 0 {
		d.torquetiltStrengthUphill = 0.1
	}

	d.integralTTImpactDownhill = 1 - c.KdBiquadLowpass/100
	d.integralTTImpactUphill = 1 - c.KdBiquadHighpass/100

	ttRatioInput := clamp(c.KdPT1HighpassFreq, 1, 20)
	d.tttBrakeRatio = (21 - ttRatioInput) / 4

	d.maxBrakeAmps = math.Trunc(c.RollSteerKp)
	d.maxDerivative = (c.RollSteerKp - math.Trunc(c.RollSteerKp)) * 100

	d.clickCurrent = (c.BrakeCurrent - math.Trunc(c.BrakeCurrent)) * 100

	d.boostThresholdOverrideEnabled = c.NRF.RetryDelayUS == 3750 && c.NRF.Retries == 13

	return d
}

// lockPersistenceAllowed implements the §6.4 "nrf_conf.channel==99" gate.
func (c *Config) lockPersistenceAllowed() bool {
	return c.NRF.Channel == 99
}

// DefaultConfig returns a Config populated with the literal numeric
// defaults named throughout spec.md §3/§4/§8, for tests and as a starting
// point for real configuration.
func DefaultConfig() Config {
	return Config{
		Hz:                    1000,
		StartupPitchTolerance: 5,
		StartupRollTolerance:  5,
		FaultADC1:             1,
		FaultADC2:             1,
		FaultADCHalfERPM:      500,
		VReg:                  3.3,

		FaultPitch:           45,
		FaultRoll:            45,
		FaultDuty:            0.95,
		FaultDelayPitch:      50,
		FaultDelayRoll:       50,
		FaultDelayDuty:       50,
		FaultDelaySwitchHalf: 500,
		FaultDelaySwitchFull: 200,

		ReverseTolerance: 50000,

		TiltbackDuty:      0.9,
		TiltbackDutyAngle: 6,
		TiltbackDutySpeed: 3,
		TiltbackHV:        58,
		TiltbackHVAngle:   8,
		TiltbackLV:        42,
		TiltbackLVAngle:   8,
		TiltbackSpeed:     3,
		LTempFETStart:     70,

		TiltbackVariable:        0.0003,
		TiltbackVariableMax:     4,
		TiltbackVariableMaxERPM: 4000,
		TiltbackConstant:        2,
		TiltbackConstantERPM:    500,
		NoseangleSpeed:          3,

		TorquetiltStrength:       0.15,
		TorquetiltStrengthUphill: 0.15,
		TorquetiltAngleLimit:     8,
		TorquetiltStartCurrent:   4,
		ShedFactor:               5,
		TorquetiltOnSpeed:      5,
		TorquetiltOffSpeed:     2,

		TurntiltStrength:     10,
		TurntiltAngleLimit:   8,
		TurntiltStartAngle:   2,
		TurntiltStartERPM:    250,
		TurntiltERPMBoost:    200,
		TurntiltERPMBoostEnd: 10000,
		TurntiltSpeed:        3,

		Kp:        0.8,
		Ki:        0.002,
		Kd:        0.8,
		DFilterHz: 10,

		AccelBoostThresh:    10,
		AccelBoostThresh2:   20,
		AccelBoostIntensity: 0.2,

		BrakeCurrent: 8.06,

		CurrentMinHeadroom: 3,
		CurrentMaxHeadroom: 3,

		InactivityTimeoutSeconds: 600,

		StartGraceMS:       100,
		StartCenterDelayMS: 1000,
		SoftStartEnabled:   true,
		ClickCurrentTicks:  2,

		StartupSpeed: 300.1,

		RollSteerERPMKp:   100,
		YawCurrentClamp:   30,
		YawKi:             5000,
		YawKp:             50,
		YawKd:             55,
		BoosterAngle:      3,
		BoosterRamp:       0.3,
		BoosterCurrent:    0,
		KdBiquadLowpass:   30,
		KdBiquadHighpass:  10,
		KdPT1HighpassFreq: 10,
		RollSteerKp:       20.02,

		NRF: NRFConf{Channel: 99},
	}
}
