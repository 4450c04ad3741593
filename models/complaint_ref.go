package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Complaint reference prefixes used by the deployments.
const (
	PrefixBG = "BG"
	PrefixGC = "GC"
)

var knownRefPrefixes = []string{PrefixBG, PrefixGC}

// FormatComplaintRef renders a complaint id for display, e.g. "BG-42".
func FormatComplaintRef(prefix string, id int64) string {
	return fmt.Sprintf("%s-%d", prefix, id)
}

// ParseComplaintRef accepts a bare number ("42") or a prefixed reference with
// either deployment prefix in any case ("GC-42", "bg-42").
func ParseComplaintRef(ref string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(ref))
	for _, p := range knownRefPrefixes {
		if strings.HasPrefix(s, p+"-") {
			s = s[len(p)+1:]
			break
		}
	}
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: invalid complaint reference %q", ErrValidation, ref)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid complaint reference %q", ErrValidation, ref)
	}
	return id, nil
}
