package domain

// Command is a single-character operator command, case-sensitive, with no
// arguments. Commands arrive over a line-oriented channel; unknown bytes
// are ignored by the loops.
type Command byte

// Main loop commands.
const (
	CmdTare      Command = 't' // re-zero the platform
	CmdCalibrate Command = 'c' // enter the calibration sub-loop
	CmdReverify  Command = 'v' // drop the cached identity check
)

// Calibration sub-loop commands.
const (
	CmdStepUp   Command = '+' // scale factor +10
	CmdStepDown Command = '-' // scale factor -10
	CmdExit     Command = 'x' // commit factor and leave the sub-loop
)

// ParseCommand maps a byte to a known Command. It returns false for bytes
// outside the command surface.
func ParseCommand(b byte) (Command, bool) {
	switch c := Command(b); c {
	case CmdTare, CmdCalibrate, CmdReverify, CmdStepUp, CmdStepDown, CmdExit:
		return c, true
	default:
		return 0, false
	}
}

// String returns a short human-readable name for logging.
func (c Command) String() string {
	switch c {
	case CmdTare:
		return "tare"
	case CmdCalibrate:
		return "calibrate"
	case CmdReverify:
		return "reverify"
	case CmdStepUp:
		return "step-up"
	case CmdStepDown:
		return "step-down"
	case CmdExit:
		return "exit"
	default:
		return "unknown"
	}
}
