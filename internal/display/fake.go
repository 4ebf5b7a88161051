package display

// Fake records what was shown, for tests.
type Fake struct {
	Activities []Activity
	Weights    map[string]int
	Welcomed   bool
	Closed     bool
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{Weights: make(map[string]int)}
}

func (f *Fake) ShowActivity(a Activity) { f.Activities = append(f.Activities, a) }

func (f *Fake) ShowIngredientWeight(name string, grams int) { f.Weights[name] = grams }

func (f *Fake) Welcome() { f.Welcomed = true }

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Last returns the most recent activity, or -1 if none was shown.
func (f *Fake) Last() Activity {
	if len(f.Activities) == 0 {
		return -1
	}
	return f.Activities[len(f.Activities)-1]
}
