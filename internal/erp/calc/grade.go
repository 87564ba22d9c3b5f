package calc

import "strings"

var gradeScores = map[string]float64{
	"A+": 5,
	"A":  4,
	"B":  3,
	"C":  2,
	"D":  1,
}

// ValidGrade reports whether g is one of A+, A, B, C, D.
func ValidGrade(g string) bool {
	_, ok := gradeScores[normalizeGrade(g)]
	return ok
}

func GradeScore(g string) (float64, bool) {
	s, ok := gradeScores[normalizeGrade(g)]
	return s, ok
}

// GradeForScore maps an average score back to its letter band.
func GradeForScore(score float64) string {
	switch {
	case score >= 4.5:
		return "A+"
	case score >= 3.5:
		return "A"
	case score >= 2.5:
		return "B"
	case score >= 1.5:
		return "C"
	default:
		return "D"
	}
}

// AverageGrade averages the known grades. Unknown grades are ignored; an
// empty input yields ("", 0).
func AverageGrade(grades []string) (string, float64) {
	var sum float64
	var n int
	for _, g := range grades {
		if s, ok := GradeScore(g); ok {
			sum += s
			n++
		}
	}
	if n == 0 {
		return "", 0
	}
	avg := sum / float64(n)
	return GradeForScore(avg), avg
}

func normalizeGrade(g string) string {
	return strings.ToUpper(strings.TrimSpace(g))
}
