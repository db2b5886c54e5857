package content

import (
	"strings"
	"testing"
)

func TestGenerateSummaryLengths(t *testing.T) {
	r := NewRegistry()

	short, err := r.Generate("summary", Request{Topic: "fractions", Length: "short"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	long, err := r.Generate("summary", Request{Topic: "fractions", Length: "long"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	shortMD, longMD := short.(string), long.(string)
	if !strings.HasPrefix(shortMD, "# Fractions") {
		t.Fatalf("summary must lead with a title, got %q", shortMD[:30])
	}
	if len(longMD) <= len(shortMD) {
		t.Fatalf("long summary must be longer than short")
	}
}

func TestTitleCaseMultibyte(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"fractions", "Fractions"},
		{"électricité basics", "Électricité Basics"},
		{"日本語", "日本語"},
	}
	for _, tc := range cases {
		if got := titleCase(tc.in); got != tc.out {
			t.Fatalf("titleCase(%q): expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestGenerateQuizCounts(t *testing.T) {
	r := NewRegistry()

	out, err := r.Generate("quiz", Request{Topic: "fractions", Count: 5})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	quiz := out.(Quiz)
	if len(quiz.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(quiz.Questions))
	}
	for _, q := range quiz.Questions {
		if len(q.Choices) != 4 || q.Answer < 0 || q.Answer >= len(q.Choices) {
			t.Fatalf("malformed question: %+v", q)
		}
	}

	out, _ = r.Generate("quiz", Request{Topic: "fractions"})
	if got := len(out.(Quiz).Questions); got != 3 {
		t.Fatalf("default count must be 3, got %d", got)
	}

	out, _ = r.Generate("quiz", Request{Topic: "fractions", Count: 50})
	if got := len(out.(Quiz).Questions); got != 10 {
		t.Fatalf("count must cap at 10, got %d", got)
	}
}

func TestGenerateDiagramIsMermaid(t *testing.T) {
	r := NewRegistry()
	out, err := r.Generate("diagram", Request{Topic: "photosynthesis"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.HasPrefix(out.(string), "graph TD") {
		t.Fatalf("diagram must be mermaid source")
	}
}

func TestGenerateRequiresTopic(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Generate("summary", Request{}); err == nil {
		t.Fatalf("empty topic must fail")
	}
}

func TestGenerateUnknownContent(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Generate("hologram", Request{Topic: "x"}); err == nil {
		t.Fatalf("unknown content id must fail")
	}
}

func TestRegisterReplacesGenerator(t *testing.T) {
	r := NewRegistry()
	r.Register("summary", GeneratorFunc(func(Request) (any, error) {
		return "custom", nil
	}))
	out, err := r.Generate("summary", Request{Topic: "x"})
	if err != nil || out != "custom" {
		t.Fatalf("replacement generator not used: %v %v", out, err)
	}
}
