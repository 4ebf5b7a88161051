// Package display shows the current activity and the ingredient weights
// to the operator. Displays are fire-and-forget: failures are logged and
// never reach the controller.
package display

import (
	"fmt"
	"strings"
)

// Activity is what the machine is doing, shown on the activity panel.
type Activity int

const (
	WaitingToLoad Activity = iota
	HomingSlider
	ChoppingKakawate
	ChoppingNeem
	AddingMolasses
	AddingWater
	MovingToMixer
	MovingMixerDown
	Mixing
	MovingMixerUp
	MovingToSealer
	Sealing
	WaitingToFerment
	ReadyForHarvest
	NotLoaded
	Fault
)

var activityText = map[Activity]string{
	WaitingToLoad:    "Waiting to load",
	HomingSlider:     "Homing slider",
	ChoppingKakawate: "Chopping Kakawate",
	ChoppingNeem:     "Chopping Neem",
	AddingMolasses:   "Adding Molasses",
	AddingWater:      "Adding Water",
	MovingToMixer:    "Moving to Mixer",
	MovingMixerDown:  "Moving Mixer Down",
	Mixing:           "Mixing",
	MovingMixerUp:    "Moving Mixer Up",
	MovingToSealer:   "Moving to Sealer",
	Sealing:          "Sealing",
	WaitingToFerment: "Waiting to Ferment",
	ReadyForHarvest:  "Ready for Harvest",
	NotLoaded:        "Not loaded",
	Fault:            "Fault - press reset",
}

func (a Activity) String() string {
	if s, ok := activityText[a]; ok {
		return s
	}
	return "Unknown Activity"
}

// Display is an operator display.
type Display interface {
	ShowActivity(a Activity)
	ShowIngredientWeight(name string, grams int)
	Welcome()
	Close() error
}

// Panel geometry of the 20x4 character LCDs.
const (
	Cols = 20
	Rows = 4
)

// WeightRows maps ingredient names to rows of the weights panel.
var WeightRows = map[string]int{
	"kakawate": 0,
	"neem":     1,
	"molasses": 2,
	"water":    3,
}

// Center pads s to the panel width, truncating if needed.
func Center(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= Cols {
		return s[:Cols]
	}
	left := (Cols - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", Cols-len(s)-left)
}

// ActivityLines renders the activity panel.
func ActivityLines(a Activity) [Rows]string {
	return [Rows]string{
		Center(""),
		Center("CURRENT ACTIVITY"),
		Center(strings.ToUpper(a.String())),
		Center(""),
	}
}

// WeightLine renders one row of the weights panel: the name from column
// 0, a colon at column 12, the grams from column 14 and "g" in the last
// column.
func WeightLine(name string, grams int) string {
	row := []byte(strings.Repeat(" ", Cols))
	label := displayName(name)
	if len(label) > 12 {
		label = label[:12]
	}
	copy(row, label)
	row[12] = ':'
	w := fmt.Sprintf("%d", grams)
	if len(w) > 5 {
		w = w[len(w)-5:]
	}
	copy(row[14:19], w)
	row[19] = 'g'
	return string(row)
}

// WelcomeLines are shown on the activity and weights panels at startup.
var WelcomeLines = [2][Rows]string{
	{Center("WELCOME TO FPJ MAKER"), Center("FERMENTED PLANT"), Center("JUICE"), Center("")},
	{Center("KAKAWATE  NEEM"), Center("MOLASSES  WATER"), Center(""), Center("PRESS START")},
}

func displayName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
