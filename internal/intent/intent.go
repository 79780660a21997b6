// Package intent turns a natural-language directive into a structured goal
// the orchestrator can decompose.
package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Intent is the structured reading of a directive.
type Intent struct {
	Prompt          string   `json:"prompt"`
	Objective       string   `json:"objective"`
	Metric          string   `json:"metric"`
	TargetValue     float64  `json:"target_value"`
	Constraint      string   `json:"constraint"`
	AffectedWorkers []string `json:"affected_workers"`
}

// Parser extracts an Intent from directive text. Implementations may range
// from pattern matching to full language models; the orchestrator only sees
// this interface.
type Parser interface {
	Parse(text string) (Intent, error)
}

// Reference objectives and metrics.
const (
	ObjectiveImproveRetention = "improve_retention"
	ObjectiveGeneral          = "general"
	MetricRetentionRate       = "retention_rate"
)

// defaultTarget is the assumed improvement when a directive names no figure.
const defaultTarget = 0.08

var percentPattern = regexp.MustCompile(`(\d+)%`)

// PatternParser is the keyword and regexp reference implementation.
type PatternParser struct{}

// NewPatternParser creates the reference parser.
func NewPatternParser() *PatternParser {
	return &PatternParser{}
}

// Parse reads the directive. Retention directives extract their percentage
// target; constraint phrases are matched by keyword.
func (p *PatternParser) Parse(text string) (Intent, error) {
	if strings.TrimSpace(text) == "" {
		return Intent{}, fmt.Errorf("intent: empty directive")
	}

	lower := strings.ToLower(text)

	in := Intent{
		Prompt:      text,
		Objective:   ObjectiveGeneral,
		Metric:      MetricRetentionRate,
		TargetValue: defaultTarget,
		Constraint:  "none specified",
		AffectedWorkers: []string{
			"sales", "marketing", "finance", "operations", "support", "hiring",
		},
	}

	if strings.Contains(lower, "retention") {
		in.Objective = ObjectiveImproveRetention
		if m := percentPattern.FindStringSubmatch(text); m != nil {
			pct, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return Intent{}, fmt.Errorf("intent: parse target %q: %w", m[1], err)
			}
			in.TargetValue = pct / 100
		}
	}

	switch {
	case strings.Contains(lower, "without increasing cac"),
		strings.Contains(lower, "no cac increase"):
		in.Constraint = "no CAC increase allowed"
	case strings.Contains(lower, "within budget"),
		strings.Contains(lower, "within existing budget"):
		in.Constraint = "within existing budget"
	}

	return in, nil
}
