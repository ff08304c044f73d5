package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of `build --ui`.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

var uiModeAliases = map[string]uiMode{
	"":      uiModeAuto,
	"auto":  uiModeAuto,
	"on":    uiModeOn,
	"true":  uiModeOn,
	"yes":   uiModeOn,
	"off":   uiModeOff,
	"false": uiModeOff,
	"no":    uiModeOff,
}

func readUIMode(value string) (uiMode, error) {
	if mode, ok := uiModeAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("build: --ui must be auto, on or off, not %q", value)
}

// showProgress decides whether a build of modules renders the progress
// view. A single module finishes too fast to be worth it; --quiet and
// dumb terminals always get plain output.
func showProgress(mode uiMode, modules int, quiet bool) bool {
	if quiet || modules < 2 {
		return false
	}
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	return isTerminal(os.Stdout) && os.Getenv("TERM") != "dumb"
}
