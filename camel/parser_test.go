package camel

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testPreamble = `\documentclass{camel}
\modulecode{MA1234}
\academicyear{2023/24}
\moduletitle{Probability}
\title{Lecture notes}
\begin{document}
`

func testDocument(body string) []byte {
	return []byte(testPreamble + body + "\n\\end{document}\n")
}

func parseBody(t *testing.T, body string, opts ...Option) *Document {
	t.Helper()
	doc, err := ParseFromBytes("main.tex", testDocument(body), opts...)
	if err != nil {
		t.Fatalf("ParseFromBytes() error = %v", err)
	}
	return doc
}

// nodesOfType returns the nodes of the given type in document order.
func nodesOfType(root *Node, typ string) []*Node {
	var nodes []*Node
	Walk(root, func(n *Node, _ int) error {
		if n.Type == typ {
			nodes = append(nodes, n)
		}
		return nil
	})
	return nodes
}

func numbers(nodes []*Node) []string {
	var nums []string
	for _, n := range nodes {
		nums = append(nums, n.NumberString())
	}
	return nums
}

func TestChapterNumbering(t *testing.T) {
	doc := parseBody(t, `
Some introduction.
\chapter{First}
Text of the first chapter.
\chapter{Second}
\chapter*{Unnumbered}
\chapter{Third}
`)
	chapters := nodesOfType(doc.Root, "chapter")
	want := []string{"1", "2", "", "3"}
	if got := numbers(chapters); !reflect.DeepEqual(got, want) {
		t.Errorf("chapter numbers = %v, want %v", got, want)
	}
	for _, ch := range chapters {
		if ch.Parent != doc.Root {
			t.Errorf("chapter %q is not a child of the book", ch.Title)
		}
	}
	if first := doc.Root.FirstChild; first.Class != TextClass || first.Content != "Some introduction." {
		t.Errorf("first child of book = %v, want the introduction text", first)
	}
}

func TestSectionNumbering(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
\section{a1}
\subsection{a1i}
\subsection{a1ii}
\section{a2}
\subsection{a2i}
\chapter{B}
\section{b1}
`)
	tests := []struct {
		typ  string
		want []string
	}{
		{"section", []string{"1.1", "1.2", "2.1"}},
		{"subsection", []string{"1.1.1", "1.1.2", "1.2.1"}},
	}
	for _, tt := range tests {
		if got := numbers(nodesOfType(doc.Root, tt.typ)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s numbers = %v, want %v", tt.typ, got, tt.want)
		}
	}

	sections := nodesOfType(doc.Root, "section")
	if sections[2].Parent.Title != "B" {
		t.Errorf("section b1 parent = %q, want chapter B", sections[2].Parent.Title)
	}
	subsections := nodesOfType(doc.Root, "subsection")
	if subsections[2].Parent != sections[1] {
		t.Errorf("subsection a2i parent = %v, want section a2", subsections[2].Parent)
	}
}

func TestTheoremAndFloatNumbering(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
\begin{definition}A\end{definition}
\begin{lemma}[Zorn]B\end{lemma}
\begin{figure}\includegraphics[width=5cm]{onions.png}\caption{Onions}\label{fig:onions}\end{figure}
\chapter{B}
\begin{theorem}C\end{theorem}
\begin{table}\caption{Results}\begin{tabular}{|c|c|}\hline a & b \\ c & d \\ \hline\end{tabular}\end{table}
`)
	var got []string
	Walk(doc.Root, func(n *Node, _ int) error {
		if n.Class == TheoremClass || n.Class == FloatClass {
			got = append(got, n.Type+" "+n.NumberString()+" "+n.Title)
		}
		return nil
	})
	want := []string{
		"definition 1.1 ",
		"lemma 1.2 Zorn",
		"figure 1.1 Onions",
		"theorem 2.1 ",
		"table 2.1 Results",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("numbered blocks = %v, want %v", got, want)
	}

	fig := nodesOfType(doc.Root, "figure")[0]
	if fig.Src != "onions.png" || fig.Label != "fig:onions" {
		t.Errorf("figure src = %q label = %q", fig.Src, fig.Label)
	}

	table := nodesOfType(doc.Root, "table")[0]
	tabular := table.FirstChild
	if tabular == nil || tabular.Type != "tabular" {
		t.Fatalf("table child = %v, want a tabular", tabular)
	}
	wantTable := "<table><tbody><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></tbody></table>"
	if tabular.Content != wantTable {
		t.Errorf("tabular content = %q, want %q", tabular.Content, wantTable)
	}
}

func TestExerciseItems(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
\begin{exercise}
\begin{questions}
\question First
\begin{parts}
\part one
\part two
\end{parts}
\question Second
\question Third
\begin{parts}
\part again
\end{parts}
\end{questions}
\end{exercise}
`)
	ex := nodesOfType(doc.Root, "exercise")[0]
	if got := ex.NumberString(); got != "1.1" {
		t.Errorf("exercise number = %s, want 1.1", got)
	}

	questions := nodesOfType(doc.Root, "question")
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	var ordinals []int
	for _, q := range questions {
		ordinals = append(ordinals, q.Number[len(q.Number)-1])
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(ordinals, want) {
		t.Errorf("question ordinals = %v, want %v", ordinals, want)
	}

	// Parts restart in each question
	var firstParts, thirdParts []int
	for _, p := range nodesOfType(questions[0], "part") {
		firstParts = append(firstParts, p.Number[len(p.Number)-1])
	}
	for _, p := range nodesOfType(questions[2], "part") {
		thirdParts = append(thirdParts, p.Number[len(p.Number)-1])
	}
	if want := []int{1, 2}; !reflect.DeepEqual(firstParts, want) {
		t.Errorf("parts of first question = %v, want %v", firstParts, want)
	}
	if want := []int{1}; !reflect.DeepEqual(thirdParts, want) {
		t.Errorf("parts of third question = %v, want %v", thirdParts, want)
	}

	// Questions and parts are numbered from the exercise
	if got := numbers(questions); !reflect.DeepEqual(got, []string{"1.1.1", "1.1.2", "1.1.3"}) {
		t.Errorf("question numbers = %v", got)
	}
	if got := numbers(nodesOfType(doc.Root, "part")); !reflect.DeepEqual(got, []string{"1.1.1.1", "1.1.1.2", "1.1.3.1"}) {
		t.Errorf("part numbers = %v", got)
	}
}

func TestExerciseItemsRestartPerExercise(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
\begin{exercise}
\begin{questions}\question a \question b\end{questions}
\end{exercise}
\begin{exercise}
\begin{questions}
\question c
\begin{parts}\part d\end{parts}
\end{questions}
\end{exercise}
\chapter{B}
\begin{exercise}
\begin{questions}\question e\end{questions}
\end{exercise}
`)
	tests := []struct {
		typ  string
		want []string
	}{
		{"exercise", []string{"1.1", "1.2", "2.1"}},
		{"question", []string{"1.1.1", "1.1.2", "1.2.1", "2.1.1"}},
		{"part", []string{"1.2.1.1"}},
	}
	for _, tt := range tests {
		if got := numbers(nodesOfType(doc.Root, tt.typ)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s numbers = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestChoices(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
\begin{exercise}
\begin{questions}
\question Pick one
\begin{choices}\choice A\correctchoice B\choice C\end{choices}
\end{questions}
\end{exercise}
`)
	choices := nodesOfType(doc.Root, "choice")
	if len(choices) != 3 {
		t.Fatalf("got %d choices, want 3", len(choices))
	}
	var texts []string
	var correct []bool
	for _, c := range choices {
		texts = append(texts, c.FirstChild.Content)
		correct = append(correct, c.IsCorrectChoice)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(texts, want) {
		t.Errorf("choices = %v, want %v", texts, want)
	}
	if want := []bool{false, true, false}; !reflect.DeepEqual(correct, want) {
		t.Errorf("correct flags = %v, want %v", correct, want)
	}
	if want := []string{"1.1.1.0.0.1", "1.1.1.0.0.2", "1.1.1.0.0.3"}; !reflect.DeepEqual(numbers(choices), want) {
		t.Errorf("choice numbers = %v, want %v", numbers(choices), want)
	}
}

func TestNestedListsKeepOuterNumbering(t *testing.T) {
	doc := parseBody(t, `
\begin{itemize}
\item one
\begin{itemize}
\item inner one
\item inner two
\end{itemize}
\item two
\end{itemize}
`)
	outer := nodesOfType(doc.Root, "itemize")[0]
	var ordinals []int
	for c := outer.FirstChild; c != nil; c = c.NextSibling {
		ordinals = append(ordinals, c.Number[len(c.Number)-1])
	}
	if want := []int{1, 2}; !reflect.DeepEqual(ordinals, want) {
		t.Errorf("outer item ordinals = %v, want %v", ordinals, want)
	}
	if got := len(nodesOfType(doc.Root, "item")); got != 4 {
		t.Errorf("got %d items, want 4", got)
	}
}

func TestReferences(t *testing.T) {
	doc := parseBody(t, `
\chapter{Intro}\label{ch:intro}
Some \textbf{bold} and \ref{ch:intro}
`)
	chapter := nodesOfType(doc.Root, "chapter")[0]
	if chapter.Label != "ch:intro" {
		t.Errorf("chapter label = %q, want ch:intro", chapter.Label)
	}

	children := chapter.Children()
	if len(children) != 2 {
		t.Fatalf("chapter has %d children, want 2", len(children))
	}
	text, ref := children[0], children[1]
	if text.Content != "Some <b>bold</b> and" {
		t.Errorf("text content = %q", text.Content)
	}
	if ref.Class != ReferenceClass || ref.Target != "ch:intro" || !ref.Resolved {
		t.Errorf("reference = %+v, want a resolved reference to ch:intro", ref)
	}

	path, ok := doc.Labels.Path("ch:intro")
	if !ok || path != chapter.MPath || path != "MA1234.00.01" {
		t.Errorf("label path = %q, %v, want %q", path, ok, chapter.MPath)
	}
	want := `<a class="ref" href="#ch-intro" data-mpath="MA1234.00.01">1</a>`
	if ref.Content != want {
		t.Errorf("reference content = %q, want %q", ref.Content, want)
	}
}

func TestUnresolvedReference(t *testing.T) {
	doc := parseBody(t, `See \ref{nowhere}.`)
	refs := nodesOfType(doc.Root, "ref")
	if len(refs) != 1 || refs[0].Resolved {
		t.Fatalf("refs = %v, want one unresolved reference", refs)
	}
	if !strings.Contains(refs[0].Content, "broken") {
		t.Errorf("broken reference content = %q", refs[0].Content)
	}
	found := false
	for _, w := range doc.Warnings {
		if errors.Is(w, ErrUnresolvedReference) {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want an unresolved reference", doc.Warnings)
	}
}

func TestDuplicateLabels(t *testing.T) {
	body := `
\chapter{A}\label{x}
\chapter{B}\label{x}
`
	_, err := ParseFromBytes("main.tex", testDocument(body))
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("error = %v, want ErrDuplicateLabel", err)
	}

	doc := parseBody(t, body, WithDuplicateLabels(DuplicateLabelsOverwrite))
	n, ok := doc.Labels.Node("x")
	if !ok || n.Title != "B" {
		t.Errorf("label x points to %v, want chapter B", n)
	}
	if len(doc.Warnings) != 1 || !errors.Is(doc.Warnings[0], ErrDuplicateLabel) {
		t.Errorf("warnings = %v, want one duplicate label", doc.Warnings)
	}
}

func TestDisplayMathIsOpaque(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
\begin{equation}\begin{array}{cc} a & b \end{array}\end{equation}
`)
	if got := nodesOfType(doc.Root, "array"); len(got) != 0 {
		t.Errorf("array nodes = %v, want none", got)
	}
	math := nodesOfType(doc.Root, "math")
	if len(math) != 1 {
		t.Fatalf("got %d math nodes, want 1", len(math))
	}
	want := `\begin{equation}\begin{array}{cc} a & b \end{array}\end{equation}`
	if math[0].Content != want {
		t.Errorf("math content = %q, want %q", math[0].Content, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			"end without begin",
			testPreamble + "text \\end{itemize}\n\\end{document}\n",
			ErrMismatchedEnvironment,
		},
		{
			"crossed environments",
			testPreamble + "\\begin{theorem}\\begin{proof}\\end{theorem}\\end{proof}\n\\end{document}\n",
			ErrMismatchedEnvironment,
		},
		{
			"wrong class",
			"\\documentclass{article}\n\\modulecode{A}\n\\academicyear{1}\n\\begin{document}\\end{document}",
			ErrInvalidDocumentClass,
		},
		{
			"no module code",
			"\\documentclass{camel}\n\\academicyear{1}\n\\begin{document}\\end{document}",
			ErrMissingRequiredField,
		},
		{
			"no document",
			"\\documentclass{camel}\n\\modulecode{A}\n\\academicyear{1}\n",
			ErrNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseFromBytes("main.tex", []byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if doc != nil {
				t.Errorf("got a document with a fatal error")
			}
			var se *SyntaxError
			if !errors.As(err, &se) || se.Filename != "main.tex" {
				t.Errorf("error %v does not locate main.tex", err)
			}
		})
	}
}

func TestErrorLine(t *testing.T) {
	_, err := ParseFromBytes("main.tex", testDocument("line one\n\\end{itemize}"))
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want a SyntaxError", err)
	}
	// The preamble has six lines, and \begin{document} ends the sixth one
	if se.Line != 8 || se.Column != 1 {
		t.Errorf("error at %d:%d, want 8:1", se.Line, se.Column)
	}
}

// summary describes the structure of a tree, for comparisons.
func summary(root *Node) []string {
	var lines []string
	Walk(root, func(n *Node, depth int) error {
		lines = append(lines, strings.Repeat(" ", depth)+n.String()+" "+n.MPath)
		return nil
	})
	return lines
}

func TestNoStateAcrossRuns(t *testing.T) {
	src := testDocument(`
\chapter{A}
\begin{theorem}x\label{t}\end{theorem}
\chapter{B}
\begin{itemize}\item y\end{itemize}
`)
	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}

	var runs [][]string
	for i := 0; i < 2; i++ {
		doc, err := p.ParseBytes("main.tex", src)
		if err != nil {
			t.Fatal(err)
		}
		runs = append(runs, summary(doc.Root))
	}
	doc, err := ParseFromBytes("main.tex", src)
	if err != nil {
		t.Fatal(err)
	}
	runs = append(runs, summary(doc.Root))

	for i := 1; i < len(runs); i++ {
		if !reflect.DeepEqual(runs[0], runs[i]) {
			t.Errorf("run %d differs:\n%s\nwant\n%s", i, strings.Join(runs[i], "\n"), strings.Join(runs[0], "\n"))
		}
	}
}

func TestNodeIDsFollowConstruction(t *testing.T) {
	doc := parseBody(t, `
Intro
\chapter{A}
\begin{theorem}x\end{theorem}
\section{S}
text
`)
	last := 0
	Walk(doc.Root, func(n *Node, _ int) error {
		if n.ID <= last {
			t.Errorf("node %v has id %d after id %d", n, n.ID, last)
		}
		last = n.ID
		return nil
	})
}

func TestMaterializedPaths(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
text
\section{S}
\begin{lemma}x\end{lemma}
`, WithBookNumber(3), WithMPathWidth(3))

	var got []string
	Walk(doc.Root, func(n *Node, _ int) error {
		got = append(got, n.Type+" "+n.MPath)
		return nil
	})
	want := []string{
		"book MA1234.03",
		"chapter MA1234.03.001",
		"tex MA1234.03.001.001",
		"section MA1234.03.001.002",
		"lemma MA1234.03.001.002.001",
		"tex MA1234.03.001.002.001.001",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paths =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestParseFromFileWithInput(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.tex")
	writeFile(t, main, testPreamble+"\\input{chapters/one}\n\\chapter{Two}\n\\end{document}\n")
	writeFile(t, filepath.Join(dir, "chapters", "one.tex"), "\\chapter{One}\n% a comment\nText\n")

	doc, err := ParseFromFile(main)
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, ch := range nodesOfType(doc.Root, "chapter") {
		titles = append(titles, ch.Title)
	}
	if want := []string{"One", "Two"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("chapters = %v, want %v", titles, want)
	}
	if doc.Meta.ModuleCode != "MA1234" || doc.Meta.BookTitle != "Lecture notes" {
		t.Errorf("meta = %+v", doc.Meta)
	}
}

func writeFile(t *testing.T, name string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// contents describes the children of n, with references as ref:label.
func contents(n *Node) []string {
	var got []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Class == ReferenceClass {
			got = append(got, "ref:"+c.Target)
			continue
		}
		got = append(got, c.Content)
	}
	return got
}

func TestReferencesInsideInlineElements(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"bold around a reference",
			`See \textbf{Chapter \ref{ch:a}} now.`,
			[]string{"See <b>Chapter</b>", "ref:ch:a", "now."},
		},
		{
			"only a reference",
			`\emph{\ref{ch:a}}`,
			[]string{"ref:ch:a"},
		},
		{
			"nested elements and two references",
			`\textbf{a \emph{\ref{ch:a} and \ref{ch:a}} b}`,
			[]string{"<b>a </b>", "ref:ch:a", "<b><i> and </i></b>", "ref:ch:a", "<b> b</b>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseBody(t, "\\chapter{A}\\label{ch:a}\n"+tt.text)
			chapter := nodesOfType(doc.Root, "chapter")[0]
			if got := contents(chapter); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("children = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvironmentTitles(t *testing.T) {
	doc := parseBody(t, `
\chapter{A}
\begin{theorem}[\emph{Zorn}'s lemma\label{thm:zorn}]
Every chain has an upper bound.
\end{theorem}
\begin{itemize}
\item[\textit{first}] one
\end{itemize}
`)
	thm := nodesOfType(doc.Root, "theorem")[0]
	if thm.Title != "<i>Zorn</i>'s lemma" {
		t.Errorf("theorem title = %q", thm.Title)
	}
	if n, ok := doc.Labels.Node("thm:zorn"); !ok || n != thm {
		t.Errorf("label in the title is not declared on the theorem")
	}
	item := nodesOfType(doc.Root, "item")[0]
	if item.Title != "<i>first</i>" {
		t.Errorf("item title = %q", item.Title)
	}
}

func TestDivisionsInsideEnvironmentsAreText(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"theorem", "\\chapter{A}\n\\begin{theorem}\\section{Not a heading}\\end{theorem}"},
		{"verbatim", "\\chapter{A}\n\\begin{verbatim}\n\\section{Not a heading}\n\\end{verbatim}"},
		{"proof in theorem", "\\chapter{A}\n\\begin{lemma}\\begin{proof}\\subsection{No}\\end{proof}\\end{lemma}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseBody(t, tt.body)
			if got := len(nodesOfType(doc.Root, "section")) + len(nodesOfType(doc.Root, "subsection")); got != 0 {
				t.Errorf("got %d divisions inside an environment", got)
			}
			if got := len(nodesOfType(doc.Root, "chapter")); got != 1 {
				t.Errorf("got %d chapters, want 1", got)
			}
		})
	}
}

func TestCodeHighlighting(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		typ      string
		contains []string
	}{
		{
			"verbatim is escaped",
			"\\begin{verbatim}\nif a < b && c {}\n\\end{verbatim}",
			"verbatim",
			[]string{"&lt;", "&amp;&amp;"},
		},
		{
			"lstlisting with a language",
			"\\begin{lstlisting}[language=Go]\nfunc main() {}\n\\end{lstlisting}",
			"lstlisting",
			[]string{"func", "<span"},
		},
		{
			"delimiters inside code",
			"\\begin{lstlisting}\n\\end{itemize}\n\\end{lstlisting}",
			"lstlisting",
			[]string{"itemize"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseBody(t, tt.body)
			nodes := nodesOfType(doc.Root, tt.typ)
			if len(nodes) != 1 {
				t.Fatalf("got %d %s nodes, want 1", len(nodes), tt.typ)
			}
			code := nodes[0]
			if !code.IsLeaf() {
				t.Errorf("code node is not a leaf")
			}
			if !strings.HasPrefix(code.Content, `<pre class="code chroma">`) || !strings.HasSuffix(code.Content, "</pre>") {
				t.Errorf("content = %q, want a chroma pre element", code.Content)
			}
			for _, want := range tt.contains {
				if !strings.Contains(code.Content, want) {
					t.Errorf("content = %q, want it to contain %q", code.Content, want)
				}
			}
		})
	}
}
