package camel

// Kind describes how an environment or command name becomes a node.
type Kind struct {
	Class NodeClass

	// Counter is the scoped counter stepped when the node is built.
	// Empty for nodes that are not numbered.
	Counter string

	// Item is the command that starts each item, for lists
	Item string
}

// kinds is the single dispatch table from LaTeX names to node kinds.
// Names not in the table are treated as plain text.
var kinds = map[string]Kind{
	"book":       {Class: DivisionClass},
	"chapter":    {Class: DivisionClass, Counter: counterChapter},
	"section":    {Class: DivisionClass, Counter: counterSection},
	"subsection": {Class: DivisionClass, Counter: counterSubsection},

	"theorem":    {Class: TheoremClass, Counter: counterTheorem},
	"definition": {Class: TheoremClass, Counter: counterTheorem},
	"lemma":      {Class: TheoremClass, Counter: counterTheorem},
	"corollary":  {Class: TheoremClass, Counter: counterTheorem},
	"remark":     {Class: TheoremClass, Counter: counterTheorem},
	"example":    {Class: TheoremClass, Counter: counterTheorem},

	"exercise":   {Class: ExerciseClass, Counter: counterExercise},
	"diagnostic": {Class: ExerciseClass, Counter: counterExercise},
	"formative":  {Class: ExerciseClass, Counter: counterExercise},
	"summative":  {Class: ExerciseClass, Counter: counterExercise},

	"itemize":   {Class: ListClass, Counter: counterList, Item: "item"},
	"enumerate": {Class: ListClass, Counter: counterList, Item: "item"},
	"questions": {Class: ListClass, Counter: counterList, Item: "question"},
	"parts":     {Class: ListClass, Counter: counterList, Item: "part"},
	"subparts":  {Class: ListClass, Counter: counterList, Item: "subpart"},
	"choices":   {Class: ListClass, Counter: counterList, Item: "choice"},
	"steps":     {Class: ListClass, Counter: counterList, Item: "step"},

	"item":     {Class: ItemClass, Counter: counterItem},
	"question": {Class: ItemClass, Counter: counterQuestion},
	"part":     {Class: ItemClass, Counter: counterPart},
	"subpart":  {Class: ItemClass, Counter: counterSubpart},
	"choice":   {Class: ItemClass, Counter: counterChoice},
	"step":     {Class: ItemClass, Counter: counterStep},

	"proof":    {Class: BoxClass},
	"answer":   {Class: BoxClass},
	"solution": {Class: BoxClass},
	"hint":     {Class: BoxClass},
	"center":   {Class: BoxClass},

	"figure": {Class: FloatClass, Counter: counterFigure},
	"table":  {Class: FloatClass, Counter: counterTable},
}

// opaqueEnvironments are not sliced: their whole text, delimiters included,
// becomes a single text node. Display math is rendered by the client.
var opaqueEnvironments = map[string]bool{
	"equation":    true,
	"equation*":   true,
	"align":       true,
	"align*":      true,
	"array":       true,
	"cases":       true,
	"eqnarray":    true,
	"eqnarray*":   true,
	"gather":      true,
	"gather*":     true,
	"multline":    true,
	"multline*":   true,
	"displaymath": true,
	"verbatim":    true,
	"lstlisting":  true,
}

// isMath reports whether an opaque environment holds display math, as
// opposed to program code.
func isMath(name string) bool {
	return opaqueEnvironments[name] && name != "verbatim" && name != "lstlisting"
}

// KindOf returns the kind registered for a name, and false for names
// that are treated as text.
func KindOf(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}
