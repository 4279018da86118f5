package boardcore

import "math"

// updateNoseAngle is the nose-angling shaper (spec §4.4): a variable
// portion proportional to erpm, clipped beyond tiltback_variable_max_erpm,
// plus a constant step beyond tiltback_constant_erpm, zeroed while the
// interpolant still leans opposite to the direction of travel (any
// opposite-signed value, with no size threshold).
func (c *CoreState) updateNoseAngle() {
	variable := c.cfg.TiltbackVariable * c.erpm
	if math.Abs(c.erpm) > c.cfg.TiltbackVariableMaxERPM {
		variable = math.Copysign(c.cfg.TiltbackVariableMax, variable)
	}

	var constant float64
	if math.Abs(c.erpm) > c.cfg.TiltbackConstantERPM {
		constant = math.Copysign(c.cfg.TiltbackConstant, c.erpm)
	}

	target := variable + constant

	// Moving forward with any down-tilt (or in reverse with any up-tilt)
	// would fight the existing lean; zero the bias instead.
	if (c.erpm > 0 && c.noseanglingInterp < 0) || (c.erpm < 0 && c.noseanglingInterp > 0) {
		target = 0
	}

	c.noseanglingTarget = target
	c.noseanglingInterp = approach(c.noseanglingInterp, c.noseanglingTarget, c.d.noseangleStep)
}
