package pipeline

import "strings"

// PatternRecord is one entry in a closed set of (name, matcher, severity,
// category) records. Spec §9 explicitly calls out avoiding "source-shaped
// string lists": the security- and performance-smell scans are modeled
// as data in tables like this one; the quality and risk scorers still
// make some direct strings.Contains checks of their own.
type PatternRecord struct {
	Name     string
	Matcher  func(content string) bool
	Severity Severity
	Category string
}

func containsAny(content string, needles ...string) bool {
	lower := strings.ToLower(content)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// SecurityPatterns is the closed set shared between the Heuristic Backend's
// analyze(), the Risk Scorer (§4.4), and the Quality Reviewer (§4.5 "any
// security smell (shared pattern set with §4.4)").
var SecurityPatterns = []PatternRecord{
	{
		Name:     "eval-call",
		Matcher:  func(c string) bool { return containsAny(c, "eval(") },
		Severity: SeverityHigh,
		Category: "security",
	},
	{
		Name:     "shell-true",
		Matcher:  func(c string) bool { return containsAny(c, "shell=true") },
		Severity: SeverityHigh,
		Category: "security",
	},
	{
		Name:     "os-system",
		Matcher:  func(c string) bool { return containsAny(c, "os.system(", "subprocess.call(") },
		Severity: SeverityHigh,
		Category: "security",
	},
	{
		Name:     "unsafe-deserialization",
		Matcher:  func(c string) bool { return containsAny(c, "pickle.loads(", "yaml.load(") },
		Severity: SeverityHigh,
		Category: "security",
	},
	{
		Name:     "sql-string-building",
		Matcher:  func(c string) bool { return containsAny(c, "select * from", "' + query", "f\"select ") },
		Severity: SeverityHigh,
		Category: "security",
	},
	{
		Name:     "hardcoded-secret",
		Matcher:  hardcodedSecret,
		Severity: SeverityCritical,
		Category: "security",
	},
}

// hardcodedSecret flags lines that look like a literal credential: one of
// the sensitive-name tokens followed by an assignment, excluding names
// that merely reference a path/file (e.g. "key_file", "token_env").
func hardcodedSecret(content string) bool {
	lower := strings.ToLower(content)
	for _, line := range strings.Split(lower, "\n") {
		for _, name := range []string{"password", "secret", "api_key", "private_key", "token"} {
			idx := strings.Index(line, name)
			if idx < 0 {
				continue
			}
			if strings.Contains(line, name+"_file") || strings.Contains(line, name+"_path") || strings.Contains(line, name+"_env") {
				continue
			}
			rest := line[idx+len(name):]
			if strings.ContainsAny(rest, "=:") {
				return true
			}
		}
	}
	return false
}

// PerformancePatterns is the closed set used by the Risk Scorer's
// performance-smell factor (§4.4).
var PerformancePatterns = []PatternRecord{
	{
		Name:     "nested-loop",
		Matcher:  hasNestedLoop,
		Severity: SeverityMedium,
		Category: "performance",
	},
	{
		Name:     "quadratic-membership-check",
		Matcher:  func(c string) bool { return containsAny(c, " in [") },
		Severity: SeverityLow,
		Category: "performance",
	},
}

// hasNestedLoop is a crude indentation-free heuristic: a second loop
// opener ("for " or "while ") appears after a first, nested inside it
// (i.e. two loop openers with no "def "/"fn " boundary between them).
func hasNestedLoop(content string) bool {
	openers := []string{"for ", "while "}
	count := 0
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, o := range openers {
			if strings.HasPrefix(trimmed, o) {
				count++
			}
		}
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "fn ") {
			count = 0
		}
		if count >= 2 {
			return true
		}
	}
	return false
}

// CriticalFilePatterns lists path substrings that make a touched file
// "critical" for risk scoring (§4.4): entry points, auth, schema,
// migrations, config.
var CriticalFilePatterns = []string{
	"main.", "lib.", "mod.", "config", "security", "auth", "database", "migration", "schema",
}

// IsCriticalFile reports whether path matches any critical-file pattern.
func IsCriticalFile(path string) bool {
	lower := strings.ToLower(path)
	for _, p := range CriticalFilePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// MatchAny reports whether content matches any pattern in the set and
// returns the first match.
func MatchAny(patterns []PatternRecord, content string) (PatternRecord, bool) {
	for _, p := range patterns {
		if p.Matcher(content) {
			return p, true
		}
	}
	return PatternRecord{}, false
}
