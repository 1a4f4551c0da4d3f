package shell

import (
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// The JSON form tags every variant with its name: {"Simple": {...}},
// {"If": {...}}, unit values render as bare strings ("Close", "And").

func tagged(tag string, v interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{tag: v})
}

// MarshalJSON implements json.Marshaler.
func (c *SimpleCommand) MarshalJSON() ([]byte, error) {
	return tagged("Simple", simpleBody(c))
}

func simpleBody(c *SimpleCommand) interface{} {
	assignments := c.Assignments
	if assignments == nil {
		assignments = []Assignment{}
	}
	words := c.Words
	if words == nil {
		words = []Word{}
	}
	redirections := c.Redirections
	if redirections == nil {
		redirections = []Redirection{}
	}

	return struct {
		Assignments  []Assignment  `json:"assignments"`
		Words        []Word        `json:"words"`
		Redirections []Redirection `json:"redirections"`
	}{assignments, words, redirections}
}

// MarshalJSON implements json.Marshaler.
func (k RedirectionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// MarshalJSON implements json.Marshaler.
func (t RedirectionTarget) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TargetFile:
		return tagged("File", t.Path)
	case TargetFd:
		return tagged("Fd", t.Fd)
	case TargetClose:
		return json.Marshal("Close")
	}
	return nil, fmt.Errorf("unknown redirection target %d", t.Kind)
}

// MarshalJSON implements json.Marshaler.
func (r Redirection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   RedirectionKind   `json:"kind"`
		Fd     *int              `json:"fd"`
		Target RedirectionTarget `json:"target"`
	}{r.Kind, r.Fd, r.Target})
}

// MarshalJSON implements json.Marshaler.
func (s Separator) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalJSON implements json.Marshaler.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	return tagged("Pipeline", struct {
		Negated  bool      `json:"negated"`
		Commands []Command `json:"commands"`
	}{p.Negated, nonNil(p.Commands)})
}

// MarshalJSON implements json.Marshaler.
func (l *List) MarshalJSON() ([]byte, error) {
	type item struct {
		Command   Command   `json:"command"`
		Separator Separator `json:"separator"`
	}
	items := make([]item, 0, len(l.Items))
	for _, it := range l.Items {
		items = append(items, item{it.Command, it.Separator})
	}
	return tagged("List", struct {
		Items []item `json:"items"`
	}{items})
}

// MarshalJSON implements json.Marshaler.
func (s *Subshell) MarshalJSON() ([]byte, error) {
	return tagged("Subshell", s.Body)
}

// MarshalJSON implements json.Marshaler.
func (c *IfCommand) MarshalJSON() ([]byte, error) {
	elifs := make([][2]Command, 0, len(c.ElifParts))
	for _, part := range c.ElifParts {
		elifs = append(elifs, [2]Command{part.Condition, part.Body})
	}
	return tagged("If", struct {
		Condition Command      `json:"condition"`
		ThenPart  Command      `json:"then_part"`
		ElifParts [][2]Command `json:"elif_parts"`
		ElsePart  Command      `json:"else_part"`
	}{c.Condition, c.ThenPart, elifs, c.ElsePart})
}

type loopBody struct {
	Condition Command `json:"condition"`
	Body      Command `json:"body"`
}

// MarshalJSON implements json.Marshaler.
func (c *WhileCommand) MarshalJSON() ([]byte, error) {
	return tagged("While", loopBody{c.Condition, c.Body})
}

// MarshalJSON implements json.Marshaler.
func (c *UntilCommand) MarshalJSON() ([]byte, error) {
	return tagged("Until", loopBody{c.Condition, c.Body})
}

// MarshalJSON implements json.Marshaler.
func (c *ForCommand) MarshalJSON() ([]byte, error) {
	return tagged("For", struct {
		Variable string   `json:"variable"`
		Words    []string `json:"words"`
		Body     Command  `json:"body"`
	}{c.Variable, nonNilStrings(c.Words), c.Body})
}

// MarshalJSON implements json.Marshaler.
func (c *CaseCommand) MarshalJSON() ([]byte, error) {
	type clause struct {
		Patterns []string `json:"patterns"`
		Body     Command  `json:"body"`
	}
	cases := make([]clause, 0, len(c.Cases))
	for _, cc := range c.Cases {
		cases = append(cases, clause{nonNilStrings(cc.Patterns), cc.Body})
	}
	return tagged("Case", struct {
		Word  string   `json:"word"`
		Cases []clause `json:"cases"`
	}{c.Word, cases})
}

// MarshalJSON implements json.Marshaler.
func (f *FunctionDef) MarshalJSON() ([]byte, error) {
	return tagged("FunctionDef", struct {
		Name string  `json:"name"`
		Body Command `json:"body"`
	}{f.Name, f.Body})
}

// MarshalJSON implements json.Marshaler.
func (g *Group) MarshalJSON() ([]byte, error) {
	return tagged("Group", nonNil(g.Commands))
}

func nonNil(cmds []Command) []Command {
	if cmds == nil {
		return []Command{}
	}
	return cmds
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Format is an output format for rendering commands.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Render writes the command in the given format. JSON output is indented and
// keeps field order; YAML output is derived from it.
func Render(cmd Command, format Format) ([]byte, error) {
	out, err := json.MarshalIndent(cmd, "", "  ")
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON, "":
		return out, nil
	case FormatYAML:
		return yaml.JSONToYAML(out)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
