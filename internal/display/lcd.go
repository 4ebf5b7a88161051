package display

import (
	"log"
	"time"
)

// LCD drives the activity and weights panels. A panel that failed to
// initialize is skipped with a warning.
type LCD struct {
	activity *Panel
	weights  *Panel
	sleep    func(time.Duration)
}

// OpenLCD opens both panels on bus.
func OpenLCD(bus string, activityAddr, weightAddr uint16) *LCD {
	return NewLCD(openPanel(bus, activityAddr), openPanel(bus, weightAddr), time.Sleep)
}

func openPanel(bus string, addr uint16) *Panel {
	dev, err := OpenI2C(bus, addr)
	if err != nil {
		log.Printf("display: lcd 0x%02x unavailable: %v", addr, err)
		return nil
	}
	p, err := NewPanel(dev, time.Sleep)
	if err != nil {
		log.Printf("display: lcd 0x%02x unavailable: %v", addr, err)
		dev.Close()
		return nil
	}
	log.Printf("display: lcd 0x%02x ready", addr)
	return p
}

// NewLCD wraps already initialized panels. Either may be nil.
func NewLCD(activity, weights *Panel, sleep func(time.Duration)) *LCD {
	return &LCD{activity: activity, weights: weights, sleep: sleep}
}

// ShowActivity replaces the activity panel.
func (l *LCD) ShowActivity(a Activity) {
	if l.activity == nil {
		return
	}
	if err := l.activity.Show(ActivityLines(a)); err != nil {
		log.Printf("display: activity panel: %v", err)
	}
}

// ShowIngredientWeight rewrites the ingredient's row on the weights panel.
func (l *LCD) ShowIngredientWeight(name string, grams int) {
	if l.weights == nil {
		return
	}
	row, ok := WeightRows[name]
	if !ok {
		log.Printf("display: no weight row for %q", name)
		return
	}
	if err := l.weights.WriteAt(row, 0, WeightLine(name, grams)); err != nil {
		log.Printf("display: weights panel: %v", err)
	}
}

// Welcome flashes the welcome screen three times and leaves it shown.
func (l *LCD) Welcome() {
	panels := []*Panel{l.activity, l.weights}
	for i := 0; i < 3; i++ {
		for _, p := range panels {
			if p != nil {
				p.Clear()
			}
		}
		l.sleep(300 * time.Millisecond)
		for j, p := range panels {
			if p == nil {
				continue
			}
			if err := p.Show(WelcomeLines[j]); err != nil {
				log.Printf("display: welcome: %v", err)
				return
			}
		}
		l.sleep(500 * time.Millisecond)
	}
}

// Close releases both panels.
func (l *LCD) Close() error {
	var first error
	for _, p := range []*Panel{l.activity, l.weights} {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
