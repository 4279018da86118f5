package boardcore

// Phase is the top-level ride/fault state (spec §3, §4.6).
type Phase int

const (
	PhaseStartup Phase = iota
	PhaseRunning
	PhaseRunningTiltbackDuty
	PhaseRunningTiltbackHV
	PhaseRunningTiltbackLV
	PhaseFaultAnglePitch
	PhaseFaultAngleRoll
	PhaseFaultSwitchHalf
	PhaseFaultSwitchFull
	PhaseFaultDuty
	PhaseFaultStartup
	PhaseFaultReverse
)

// String renders a Phase for logging/telemetry.
func (p Phase) String() string {
	switch p {
	case PhaseStartup:
		return "STARTUP"
	case PhaseRunning:
		return "RUNNING"
	case PhaseRunningTiltbackDuty:
		return "RUNNING_TILTBACK_DUTY"
	case PhaseRunningTiltbackHV:
		return "RUNNING_TILTBACK_HV"
	case PhaseRunningTiltbackLV:
		return "RUNNING_TILTBACK_LV"
	case PhaseFaultAnglePitch:
		return "FAULT_ANGLE_PITCH"
	case PhaseFaultAngleRoll:
		return "FAULT_ANGLE_ROLL"
	case PhaseFaultSwitchHalf:
		return "FAULT_SWITCH_HALF"
	case PhaseFaultSwitchFull:
		return "FAULT_SWITCH_FULL"
	case PhaseFaultDuty:
		return "FAULT_DUTY"
	case PhaseFaultStartup:
		return "FAULT_STARTUP"
	case PhaseFaultReverse:
		return "FAULT_REVERSE"
	default:
		return "UNKNOWN"
	}
}

// IsFault reports whether p is any FAULT_* member.
func (p Phase) IsFault() bool {
	switch p {
	case PhaseFaultAnglePitch, PhaseFaultAngleRoll, PhaseFaultSwitchHalf,
		PhaseFaultSwitchFull, PhaseFaultDuty, PhaseFaultStartup, PhaseFaultReverse:
		return true
	default:
		return false
	}
}

// IsRunning reports whether p is RUNNING or a RUNNING_TILTBACK_* member.
func (p Phase) IsRunning() bool {
	switch p {
	case PhaseRunning, PhaseRunningTiltbackDuty, PhaseRunningTiltbackHV, PhaseRunningTiltbackLV:
		return true
	default:
		return false
	}
}

// SetpointMode is the setpoint director's chosen adjustment mode (spec §3, §4.3).
type SetpointMode int

const (
	ModeCentering SetpointMode = iota
	ModeReverseStop
	ModeTiltbackNone
	ModeTiltbackDuty
	ModeTiltbackHV
	ModeTiltbackLV
)

// SwitchState is the derived footpad switch reading (spec §3, §4.1).
type SwitchState int

const (
	SwitchOff SwitchState = iota
	SwitchHalf
	SwitchOn
)

// FaultKind names a detected fault condition (spec §4.2); FaultNone means no
// fault fired this tick.
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultSwitchFull
	FaultSwitchHalf
	FaultAnglePitch
	FaultAngleRoll
	FaultDuty
	FaultReverse
)

// padEventKind names a single step of the lock gesture (spec §4.7).
type padEventKind int

const (
	padEventOn padEventKind = iota
	padEventOff
	padEventADC1
	padEventADC2
)
