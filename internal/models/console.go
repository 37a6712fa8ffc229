package models

import "strings"

// ConsoleType identifies a kind of station a café can stock.
type ConsoleType string

const (
	ConsolePS5       ConsoleType = "ps5"
	ConsolePS4       ConsoleType = "ps4"
	ConsoleXbox      ConsoleType = "xbox"
	ConsolePC        ConsoleType = "pc"
	ConsolePool      ConsoleType = "pool"
	ConsoleSnooker   ConsoleType = "snooker"
	ConsoleArcade    ConsoleType = "arcade"
	ConsoleVR        ConsoleType = "vr"
	ConsoleSteering  ConsoleType = "steering"
	ConsoleRacingSim ConsoleType = "racing-sim"
)

// ConsoleTypes lists every console type in display order.
var ConsoleTypes = []ConsoleType{
	ConsolePS5,
	ConsolePS4,
	ConsoleXbox,
	ConsolePC,
	ConsolePool,
	ConsoleSnooker,
	ConsoleArcade,
	ConsoleVR,
	ConsoleSteering,
	ConsoleRacingSim,
}

var consoleLabels = map[ConsoleType]string{
	ConsolePS5:       "PS5",
	ConsolePS4:       "PS4",
	ConsoleXbox:      "Xbox",
	ConsolePC:        "PC",
	ConsolePool:      "Pool",
	ConsoleSnooker:   "Snooker",
	ConsoleArcade:    "Arcade",
	ConsoleVR:        "VR",
	ConsoleSteering:  "Steering",
	ConsoleRacingSim: "Racing-Sim",
}

// ParseConsoleType accepts either the key ("ps5") or the label ("PS5").
func ParseConsoleType(raw string) (ConsoleType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "_", "-")
	ct := ConsoleType(key)
	if ct.Valid() {
		return ct, true
	}
	return "", false
}

func (c ConsoleType) Valid() bool {
	_, ok := consoleLabels[c]
	return ok
}

// Label is the human name used in station identities.
func (c ConsoleType) Label() string {
	if l, ok := consoleLabels[c]; ok {
		return l
	}
	return string(c)
}

// IsGaming reports whether the console is priced per controller.
func (c ConsoleType) IsGaming() bool {
	return c == ConsolePS5 || c == ConsolePS4 || c == ConsoleXbox
}
