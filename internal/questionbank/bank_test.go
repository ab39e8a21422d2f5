package questionbank_test

import (
	"os"
	"path/filepath"
	"testing"

	"voice-quiz/internal/domain"
	"voice-quiz/internal/questionbank"
)

func TestDefault(t *testing.T) {
	bank := questionbank.Default()
	if bank.Len() != 5 {
		t.Fatalf("questions: got %d, want 5", bank.Len())
	}

	for i := 0; i < bank.Len(); i++ {
		q, ok := bank.At(i)
		if !ok {
			t.Fatalf("At(%d) missing", i)
		}
		answer, ok := domain.Classify(q, q.Correct)
		if !ok || !domain.IsCorrect(q, answer) {
			t.Errorf("question %d: canonical answer %q does not classify as correct", i+1, q.Correct)
		}
	}

	if _, ok := bank.At(5); ok {
		t.Errorf("At(5) should be out of range")
	}
}

func TestAt_ReturnsCopy(t *testing.T) {
	bank := questionbank.Default()
	q, _ := bank.At(0)
	q.Options[0] = "Berlin"

	again, _ := bank.At(0)
	if again.Options[0] != "Paris" {
		t.Errorf("bank mutated through At: got %s", again.Options[0])
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	content := `questions:
  - question: Is water wet?
    type: yesno
    correct_answer: "Yes"
    explanation: It is.
  - question: Which is a planet?
    type: multiple
    options: [Mars, Moon]
    correct_answer: mars
    explanation: Mars is a planet.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	bank, err := questionbank.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if bank.Len() != 2 {
		t.Fatalf("questions: got %d, want 2", bank.Len())
	}

	q, _ := bank.At(0)
	if q.Kind != domain.KindBinary || q.Correct != "yes" {
		t.Errorf("first question: got kind %s correct %q", q.Kind, q.Correct)
	}
	q, _ = bank.At(1)
	if q.Kind != domain.KindChoice || len(q.Options) != 2 {
		t.Errorf("second question: got kind %s options %v", q.Kind, q.Options)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	content := `{"questions":[{"question":"Is ice cold?","type":"binary","correct_answer":"yes","explanation":"Brr."}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	bank, err := questionbank.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if bank.Len() != 1 {
		t.Errorf("questions: got %d, want 1", bank.Len())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown field", "q.yaml", "questions:\n  - question: x\n    type: binary\n    correct_answer: yes\n    bogus: 1\n"},
		{"bad answer", "q.yaml", "questions:\n  - question: x\n    type: binary\n    correct_answer: maybe\n"},
		{"unknown type", "q.json", `{"questions":[{"question":"x","type":"essay","correct_answer":"yes"}]}`},
		{"empty", "q.yaml", "questions: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := questionbank.Load(path); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}
