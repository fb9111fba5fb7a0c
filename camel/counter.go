package camel

// Names of the scoped counters.
const (
	counterChapter    = "chapter"
	counterSection    = "section"
	counterSubsection = "subsection"
	counterTheorem    = "theorem"
	counterExercise   = "exercise"
	counterFigure     = "figure"
	counterTable      = "table"
	counterList       = "list"
	counterQuestion   = "question"
	counterPart       = "part"
	counterSubpart    = "subpart"
	counterChoice     = "choice"
	counterItem       = "item"
	counterStep       = "step"
)

// counterResets lists, for each counter, the counters set to zero when it is stepped,
// in the same way as \counterwithin does in LaTeX.
var counterResets = map[string][]string{
	counterChapter:  {counterSection, counterSubsection, counterTheorem, counterExercise, counterFigure, counterTable, counterList},
	counterSection:  {counterSubsection},
	counterExercise: {counterQuestion, counterPart, counterSubpart, counterChoice},
	counterQuestion: {counterPart, counterSubpart, counterChoice},
	counterPart:     {counterSubpart, counterChoice},
	counterSubpart:  {counterChoice},
}

// exerciseItems are the item counters scoped to an exercise, outermost first.
// Their items are numbered from the exercise down, like 2.1.3.1 for the first
// part of the third question of exercise 2.1.
var exerciseItems = []string{counterQuestion, counterPart, counterSubpart, counterChoice}

func isExerciseItem(name string) bool {
	for _, level := range exerciseItems {
		if level == name {
			return true
		}
	}
	return false
}

// Counters holds the values of all scoped counters of a parse run.
// The zero value is not usable, use newCounters.
type Counters struct {
	values map[string]int
}

func newCounters() *Counters {
	return &Counters{values: map[string]int{}}
}

// Value returns the current value of the counter.
func (c *Counters) Value(name string) int {
	return c.values[name]
}

// Step increments the counter and resets its dependants, recursively.
// It returns the new value.
func (c *Counters) Step(name string) int {
	c.values[name]++
	c.reset(name)
	return c.values[name]
}

func (c *Counters) reset(name string) {
	for _, dep := range counterResets[name] {
		c.values[dep] = 0
		c.reset(dep)
	}
}

// Enter starts a fresh run of the counter, for example the items of a new list,
// and returns a function that restores the previous value.
// This allows a list nested inside an item of the same kind to number its own items
// without disturbing the numbering of the outer list.
func (c *Counters) Enter(name string) (restore func()) {
	saved := c.values[name]
	c.values[name] = 0
	return func() {
		c.values[name] = saved
	}
}

// numberOf returns the number of a node that has just stepped the given counter.
func (c *Counters) numberOf(name string) []int {
	ch := c.values[counterChapter]
	switch name {
	case counterChapter:
		return []int{ch}
	case counterSection:
		return []int{ch, c.values[counterSection]}
	case counterSubsection:
		return []int{ch, c.values[counterSection], c.values[counterSubsection]}
	case counterQuestion, counterPart, counterSubpart, counterChoice:
		number := []int{ch, c.values[counterExercise]}
		for _, level := range exerciseItems {
			number = append(number, c.values[level])
			if level == name {
				break
			}
		}
		return number
	default:
		return []int{ch, c.values[name]}
	}
}
