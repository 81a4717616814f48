package control

import "strings"

// Command is a decoded actuator command.
type Command int

const (
	// CommandUnrecognized is any payload that is not <DEVICE>_ON or <DEVICE>_OFF.
	CommandUnrecognized Command = iota
	CommandOn
	CommandOff
)

const (
	suffixOn  = "_ON"
	suffixOff = "_OFF"
)

// String returns "on", "off" or "unrecognized".
func (c Command) String() string {
	switch c {
	case CommandOn:
		return "on"
	case CommandOff:
		return "off"
	default:
		return "unrecognized"
	}
}

// Engaged reports the actuator state the command asks for.
func (c Command) Engaged() bool {
	return c == CommandOn
}

// Payload returns the wire form of the command for device, e.g. "LED_ON".
// It returns "" for CommandUnrecognized.
func (c Command) Payload(device string) string {
	switch c {
	case CommandOn:
		return device + suffixOn
	case CommandOff:
		return device + suffixOff
	default:
		return ""
	}
}

// CommandFor returns CommandOn when engaged is true, otherwise CommandOff.
func CommandFor(engaged bool) Command {
	if engaged {
		return CommandOn
	}
	return CommandOff
}

// DecodeCommand parses payload as a command for device. Surrounding
// whitespace is ignored; the device prefix and suffix are case-sensitive.
func DecodeCommand(device string, payload []byte) Command {
	text := strings.TrimSpace(string(payload))
	if device == "" {
		return CommandUnrecognized
	}

	switch text {
	case device + suffixOn:
		return CommandOn
	case device + suffixOff:
		return CommandOff
	default:
		return CommandUnrecognized
	}
}
