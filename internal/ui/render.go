package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voice-quiz/internal/domain"
)

const meterCells = 20

var phaseLabels = map[domain.Phase]string{
	domain.PhaseIdle:           "Starting",
	domain.PhaseAwaitingStart:  "Ready",
	domain.PhaseSpeakingPrompt: "Reading question",
	domain.PhaseListening:      "Listening",
	domain.PhaseInterpreting:   "Checking answer",
	domain.PhaseFeedback:       "Feedback",
	domain.PhaseComplete:       "Game over",
}

func render(m Model) string {
	s := m.snap
	lines := []string{
		stylize("Voice Quiz", m.noColor, lipgloss.Color("99"), true),
		renderStatus(m),
		"",
	}

	switch s.Phase {
	case domain.PhaseAwaitingStart, domain.PhaseIdle:
		lines = append(lines, fmt.Sprintf("%d questions. Press s to start.", s.Total))
	case domain.PhaseComplete:
		lines = append(lines,
			m.progress.ViewAs(1),
			"",
			stylize(fmt.Sprintf("Game complete! You got %d out of %d questions correct.", s.Score, s.Total), m.noColor, lipgloss.Color("42"), true),
			domain.Grade(s.Score, s.Total),
		)
	default:
		lines = append(lines, renderQuestion(m)...)
	}

	if s.Message != "" {
		lines = append(lines, "", stylize(s.Message, m.noColor, lipgloss.Color("214"), false))
	}
	lines = append(lines, "", stylize(helpLine(s), m.noColor, lipgloss.Color("241"), false))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderStatus(m Model) string {
	s := m.snap
	label := phaseLabels[s.Phase]
	if s.Phase == domain.PhaseSpeakingPrompt || s.Phase == domain.PhaseInterpreting {
		label = m.spinner.View() + " " + label
	}
	line := label
	if s.Phase != domain.PhaseAwaitingStart && s.Phase != domain.PhaseIdle {
		line += fmt.Sprintf(" | Score: %d/%d", s.Score, s.Total)
	}
	return stylize(line, m.noColor, lipgloss.Color("33"), false)
}

func renderQuestion(m Model) []string {
	s := m.snap
	percent := 0.0
	if s.Total > 0 {
		percent = float64(s.Index) / float64(s.Total)
	}

	prompt := s.Prompt
	if m.width > 0 {
		prompt = lipgloss.NewStyle().Width(m.width - 2).Render(prompt)
	}

	lines := []string{
		fmt.Sprintf("Question %d of %d", s.Index+1, s.Total),
		m.progress.ViewAs(percent),
		"",
		stylize(prompt, m.noColor, lipgloss.Color("255"), true),
		renderOptions(s),
		"",
	}

	switch {
	case s.Phase == domain.PhaseListening && s.Recording:
		lines = append(lines, fmt.Sprintf("Recording %2ds  %s", s.RemainingSeconds, levelMeter(s.Amplitude)))
	case s.Phase == domain.PhaseListening:
		lines = append(lines, "Press l to answer by voice.")
	}

	if s.LastHeard != "" {
		lines = append(lines, "Heard: "+s.LastHeard)
	}
	if s.Attempts > 0 && s.Phase != domain.PhaseFeedback {
		lines = append(lines, fmt.Sprintf("Attempt %d", s.Attempts+1))
	}

	if s.Phase == domain.PhaseFeedback {
		switch s.Verdict {
		case domain.VerdictCorrect:
			lines = append(lines, stylize("Correct! Great job!", m.noColor, lipgloss.Color("42"), true))
		case domain.VerdictIncorrect:
			lines = append(lines, stylize("Not quite right, but good try!", m.noColor, lipgloss.Color("203"), true))
		}
		if s.Explanation != "" {
			lines = append(lines, s.Explanation)
		}
	}
	return lines
}

func renderOptions(s domain.Snapshot) string {
	if s.Kind == domain.KindBinary {
		return "(y) Yes   (n) No"
	}
	parts := make([]string, len(s.Options))
	for i, opt := range s.Options {
		parts[i] = fmt.Sprintf("(%s) %s", domain.Letters[i], opt)
	}
	return strings.Join(parts, "   ")
}

// levelMeter draws amplitude on a 0..2 scale.
func levelMeter(amplitude float64) string {
	filled := int(amplitude / 2 * meterCells)
	filled = max(0, min(filled, meterCells))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", meterCells-filled) + "]"
}

func helpLine(s domain.Snapshot) string {
	switch s.Phase {
	case domain.PhaseAwaitingStart, domain.PhaseIdle:
		return "s start  q quit"
	case domain.PhaseComplete:
		return "x new game  q quit"
	case domain.PhaseListening:
		answers := "1-3/a-c answer"
		if s.Kind == domain.KindBinary {
			answers = "y/n answer"
		}
		return answers + "  l listen  space stop  r repeat  x reset  q quit"
	}
	return "r repeat  x reset  q quit"
}

func stylize(text string, noColor bool, color lipgloss.Color, bold bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}
