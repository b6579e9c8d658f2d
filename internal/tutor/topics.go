package tutor

import "strings"

// SupportedSubjects maps broad subject keys to example quiz topics. The
// examples are offered when a student asks for a quiz on nothing more
// specific than "math" or "science".
var SupportedSubjects = map[string][]string{
	"math":    {"linear equations", "fractions", "probability", "geometry", "calculus", "statistics"},
	"science": {"electromagnetism", "photosynthesis", "cellular respiration", "Newton's laws", "chemical bonding"},
}

// genericSubjectWords are subject names too broad to start a quiz on.
var genericSubjectWords = map[string]bool{
	"math":        true,
	"maths":       true,
	"mathematics": true,
	"science":     true,
}

// TopicExamples returns example topics for a subject, or nil when the
// subject is not one of the supported keys.
func TopicExamples(subject string) []string {
	return SupportedSubjects[strings.ToLower(subject)]
}
