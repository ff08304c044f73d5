package trace

import (
	"fmt"
	"strings"
)

// Level is the verbosity of a tracer. Each level adds one scope to the
// previous one.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError records nothing but heartbeats; a ring at this level is a
	// cheap liveness log.
	LevelError
	LevelPhase  // driver and passes
	LevelDetail // plus module bookkeeping
	LevelDebug  // plus function and block nodes
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String, in any case; the empty
// string means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(s)
	if s == "" {
		return LevelOff, nil
	}
	for l, name := range levelNames {
		if name == s {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// deepest is the finest scope a level records.
var deepest = [...]Scope{
	LevelPhase:  ScopePass,
	LevelDetail: ScopeModule,
	LevelDebug:  ScopeNode,
}

// ShouldEmit reports whether events of scope pass the level. Program logs
// go through from LevelPhase on, independent of the scope order.
func (l Level) ShouldEmit(scope Scope) bool {
	if scope == ScopeProgram {
		return l >= LevelPhase
	}
	if l < LevelPhase || l > LevelDebug {
		return false
	}
	return scope <= deepest[l]
}
