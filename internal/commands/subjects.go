package commands

import (
	"fmt"
	"strings"

	"github.com/colonyops/touchline/internal/core/thread"
)

// parseSubjects reads subjects from positional arguments. Each subject is
// either one "category/keyword" argument or a "category keyword" pair.
func parseSubjects(args []string) ([]thread.Subject, error) {
	var out []thread.Subject
	for i := 0; i < len(args); i++ {
		arg := args[i]

		var s thread.Subject
		if category, keyword, ok := strings.Cut(arg, "/"); ok {
			s = thread.NewSubject(category, keyword)
		} else {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing keyword after category %q", arg)
			}
			s = thread.NewSubject(arg, args[i+1])
			i++
		}

		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("subject %q: %w", arg, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseSubject reads exactly one subject.
func parseSubject(args []string) (thread.Subject, error) {
	subjects, err := parseSubjects(args)
	if err != nil {
		return thread.Subject{}, err
	}
	if len(subjects) != 1 {
		return thread.Subject{}, fmt.Errorf("expected one subject (category keyword), got %d", len(subjects))
	}
	return subjects[0], nil
}
