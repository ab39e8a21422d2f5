package questionbank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"voice-quiz/internal/domain"
)

type file struct {
	Questions []entry `json:"questions" yaml:"questions"`
}

type entry struct {
	Question    string   `json:"question" yaml:"question"`
	Type        string   `json:"type" yaml:"type"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Correct     string   `json:"correct_answer" yaml:"correct_answer"`
	Explanation string   `json:"explanation" yaml:"explanation"`
}

// Load reads a YAML or JSON question file. The format is chosen by extension.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question file: %w", err)
	}

	var f file
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		f, err = parseJSON(data)
	} else {
		f, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(f.Questions))
	for i, e := range f.Questions {
		kind, err := parseKind(e.Type)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, domain.Question{
			Prompt:      strings.TrimSpace(e.Question),
			Kind:        kind,
			Options:     e.Options,
			Correct:     e.Correct,
			Explanation: strings.TrimSpace(e.Explanation),
		})
	}

	return New(questions)
}

// parseKind accepts both the current names and the yesno/multiple aliases.
func parseKind(value string) (domain.Kind, error) {
	switch domain.NormalizeToken(value) {
	case "binary", "yesno", "yes_no":
		return domain.KindBinary, nil
	case "choice", "multiple":
		return domain.KindChoice, nil
	default:
		return "", fmt.Errorf("unknown question type %q", value)
	}
}

func parseJSON(data []byte) (file, error) {
	var f file
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return file{}, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return file{}, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return file{}, fmt.Errorf("parse json: %w", err)
	}
	return f, nil
}

func parseYAML(data []byte) (file, error) {
	var f file
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return file{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return file{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return file{}, fmt.Errorf("parse yaml: %w", err)
	}
	return f, nil
}
