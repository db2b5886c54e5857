// Package content produces the payloads that back tabs: lecture summaries,
// quizzes, diagrams, and standalone webpages. Generation is deterministic
// templating over the request; an upstream model can replace any generator
// through the registry without touching the layout engine.
package content

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Request carries what the caller wants generated.
type Request struct {
	Topic string `json:"topic"`
	// Length hints the verbosity: "short", "medium", "long".
	Length string `json:"length,omitempty"`
	// Count is the number of quiz questions; 0 picks a default.
	Count int `json:"count,omitempty"`
}

// Quiz is a generated set of questions.
type Quiz struct {
	Topic     string     `json:"topic"`
	Questions []Question `json:"questions"`
}

// Question is one multiple-choice item.
type Question struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Answer  int      `json:"answer"`
}

// Generator produces a payload for one content kind.
type Generator interface {
	Generate(req Request) (any, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(req Request) (any, error)

func (f GeneratorFunc) Generate(req Request) (any, error) { return f(req) }

// Registry maps content ids to generators.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry returns a registry with the built-in generators installed.
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]Generator)}
	r.Register("summary", GeneratorFunc(generateSummary))
	r.Register("quiz", GeneratorFunc(generateQuiz))
	r.Register("diagram", GeneratorFunc(generateDiagram))
	r.Register("webpage", GeneratorFunc(generateWebpage))
	return r
}

// Register installs or replaces the generator for a content id.
func (r *Registry) Register(contentID string, g Generator) {
	r.generators[contentID] = g
}

// Generate produces a payload for the given content id.
func (r *Registry) Generate(contentID string, req Request) (any, error) {
	g, ok := r.generators[contentID]
	if !ok {
		return nil, fmt.Errorf("no generator for content %q", contentID)
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	return g.Generate(req)
}

// Kinds returns the registered content ids.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.generators))
	for k := range r.generators {
		out = append(out, k)
	}
	return out
}

func generateSummary(req Request) (any, error) {
	paragraphs := 2
	switch req.Length {
	case "short":
		paragraphs = 1
	case "long":
		paragraphs = 4
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", titleCase(req.Topic))
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&sb, "Key point %d about %s: review the definitions, work one example end to end, and note where the approach breaks down.\n\n", i+1, req.Topic)
	}
	sb.WriteString("## Takeaways\n\n")
	fmt.Fprintf(&sb, "- %s connects to what you covered previously\n", titleCase(req.Topic))
	sb.WriteString("- Practice with the quiz pane to check understanding\n")
	return sb.String(), nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func generateQuiz(req Request) (any, error) {
	count := req.Count
	if count <= 0 {
		count = 3
	}
	if count > 10 {
		count = 10
	}

	quiz := Quiz{Topic: req.Topic}
	for i := 0; i < count; i++ {
		quiz.Questions = append(quiz.Questions, Question{
			Prompt: fmt.Sprintf("Question %d: which statement about %s is correct?", i+1, req.Topic),
			Choices: []string{
				fmt.Sprintf("A core property of %s", req.Topic),
				"A common misconception",
				"An unrelated fact",
				"None of the above",
			},
			Answer: 0,
		})
	}
	return quiz, nil
}

func generateDiagram(req Request) (any, error) {
	// Mermaid source; the webview renders it client-side.
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    A[%s] --> B[Definition]\n", req.Topic)
	sb.WriteString("    A --> C[Examples]\n")
	sb.WriteString("    A --> D[Common Pitfalls]\n")
	sb.WriteString("    C --> E[Worked Example]\n")
	return sb.String(), nil
}

func generateWebpage(req Request) (any, error) {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&sb, "  <title>%s</title>\n", req.Topic)
	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&sb, "  <h1>%s</h1>\n", req.Topic)
	fmt.Fprintf(&sb, "  <p>An interactive page about %s.</p>\n", req.Topic)
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}
