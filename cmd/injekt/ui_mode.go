package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

type switchMode string

const (
	modeAuto switchMode = "auto"
	modeOn   switchMode = "on"
	modeOff  switchMode = "off"
)

// readSwitch parses an auto|on|off flag value.
func readSwitch(flag, value string) (switchMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return modeAuto, nil
	case "on", "always", "true":
		return modeOn, nil
	case "off", "never", "false":
		return modeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

func (m switchMode) resolve(tty bool) bool {
	switch m {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return tty
	}
}

func shouldUseTUI(mode switchMode) bool {
	return mode.resolve(isTerminal(os.Stdout))
}

func shouldUseColor(mode switchMode) bool {
	return mode.resolve(isTerminal(os.Stdout) && !color.NoColor)
}
