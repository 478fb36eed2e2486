package profile

import (
	"regexp"
	"strings"
)

var weatheringGrades = []struct {
	re    *regexp.Regexp
	grade string
}{
	{regexp.MustCompile(`^I(/II)?$`), "I"},
	{regexp.MustCompile(`^II(/III)?$`), "II"},
	{regexp.MustCompile(`^III(/IV)?$`), "III"},
	{regexp.MustCompile(`^(IV(/V)?|IV/III)$`), "IV"},
	{regexp.MustCompile(`^(V(/VI)?|V/IV)$`), "V"},
	{regexp.MustCompile(`^VI(/V)?$`), "VI"},
}

// SimplifyWeathering reduces a combined weathering grade such as "III/IV" to
// the first Roman numeral. Unrecognised grades are returned trimmed.
func SimplifyWeathering(grade string) string {
	g := strings.TrimSpace(grade)
	for _, w := range weatheringGrades {
		if w.re.MatchString(g) {
			return w.grade
		}
	}
	return g
}
