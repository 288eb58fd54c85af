package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// toggle is an auto|on|off setting. Auto turns the feature on only when
// every stream it touches is a terminal.
type toggle uint8

const (
	toggleAuto toggle = iota
	toggleOn
	toggleOff
)

var toggleNames = map[string]toggle{"": toggleAuto, "auto": toggleAuto, "on": toggleOn, "off": toggleOff}

func parseToggle(flag, value string) (toggle, error) {
	if t, ok := toggleNames[strings.ToLower(strings.TrimSpace(value))]; ok {
		return t, nil
	}
	return toggleAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

func (t toggle) resolve(streams ...*os.File) bool {
	switch t {
	case toggleOn:
		return true
	case toggleOff:
		return false
	}
	for _, f := range streams {
		if f == nil || !isTerminal(f) {
			return false
		}
	}
	return len(streams) > 0
}

func isTerminal(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

// useTUI resolves the --ui setting; interactive views need both stdin and
// stdout.
func useTUI(value string) (bool, error) {
	t, err := parseToggle("ui", value)
	if err != nil {
		return false, err
	}
	return t.resolve(os.Stdout, os.Stdin), nil
}

// useColor resolves the --color setting against out. NO_COLOR disables
// auto mode; an invalid value counts as auto.
func useColor(value string, out *os.File) bool {
	t, _ := parseToggle("color", value)
	if t == toggleAuto && os.Getenv("NO_COLOR") != "" {
		return false
	}
	return t.resolve(out)
}
