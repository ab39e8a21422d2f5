package domain

// Grade returns the closing remark for a final score.
func Grade(score, total int) string {
	if total <= 0 {
		return ""
	}
	ratio := float64(score) / float64(total)
	switch {
	case score == total:
		return "Perfect! Amazing job!"
	case ratio >= 0.8:
		return "Excellent work!"
	case ratio >= 0.6:
		return "Good job! Keep practicing!"
	default:
		return "Nice try! You'll do better next time!"
	}
}
