package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(Cols)

	faultStyle = panelStyle.Copy().
			BorderForeground(lipgloss.Color("#EF4444"))

	harvestStyle = panelStyle.Copy().
			BorderForeground(lipgloss.Color("#10B981"))
)

// Console renders both panels as boxes on a terminal, one frame per
// update. Used when running without the LCDs.
type Console struct {
	w        io.Writer
	activity Activity
	weights  map[string]int
}

// NewConsole renders to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, weights: make(map[string]int)}
}

func (c *Console) ShowActivity(a Activity) {
	c.activity = a
	c.render()
}

func (c *Console) ShowIngredientWeight(name string, grams int) {
	c.weights[name] = grams
	c.render()
}

func (c *Console) Welcome() {
	fmt.Fprintln(c.w, lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(strings.Join(WelcomeLines[0][:], "\n")),
		panelStyle.Render(strings.Join(WelcomeLines[1][:], "\n")),
	))
}

func (c *Console) Close() error { return nil }

// Frame returns the current rendering.
func (c *Console) Frame() string {
	style := panelStyle
	switch c.activity {
	case Fault:
		style = faultStyle
	case ReadyForHarvest:
		style = harvestStyle
	}
	lines := ActivityLines(c.activity)
	left := style.Render(strings.Join(lines[:], "\n"))

	names := make([]string, 0, len(WeightRows))
	for n := range WeightRows {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return WeightRows[names[i]] < WeightRows[names[j]] })
	rows := make([]string, len(names))
	for i, n := range names {
		rows[i] = WeightLine(n, c.weights[n])
	}
	right := panelStyle.Render(strings.Join(rows, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (c *Console) render() {
	fmt.Fprintln(c.w, c.Frame())
}
