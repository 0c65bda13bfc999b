package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"finassist/internal/core"
)

// Generic defaults used when neither the structured nor the heuristic path
// yields a field.
const (
	defaultStory      = "Your financial journey is unique and every step counts!"
	defaultInsight    = "Track your expenses regularly to build better money habits."
	defaultMotivation = "You're taking control of your finances - keep it up!"
)

// maxTips caps the tips sequence per the output contract.
const maxTips = 3

// minTipLength filters out fragments matched by the list heuristics.
const minTipLength = 10

var (
	braceRe = regexp.MustCompile(`(?s)\{.*\}`)

	storyRe      = regexp.MustCompile(`(?i)(?:story|summary)[:\s]+(.*)`)
	insightRe    = regexp.MustCompile(`(?i)(?:insight|pattern)[:\s]+(.*)`)
	motivationRe = regexp.MustCompile(`(?i)(?:motivation|message)[:\s]+(.*)`)

	tipRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:tip\s*\d+|•|\d+\.)\s*(.*)`),
		regexp.MustCompile(`(?i)(?:suggestion|recommend)[:\s]+(.*)`),
	}
)

// Normalize turns a raw provider reply into the AIAnalysis contract.
// Precedence: embedded brace-delimited JSON payload, then labeled-line and
// enumerated-list heuristics per field, then generic defaults. Never fails.
func Normalize(content string) core.AIAnalysis {
	if payload := braceRe.FindString(content); payload != "" {
		var parsed core.AIAnalysis
		if err := json.Unmarshal([]byte(payload), &parsed); err == nil {
			if len(parsed.Tips) > maxTips {
				parsed.Tips = parsed.Tips[:maxTips]
			}
			return applyDefaults(parsed)
		}
	}

	return applyDefaults(core.AIAnalysis{
		Story:      extractLabeled(content, storyRe),
		Tips:       extractTips(content),
		Insight:    extractLabeled(content, insightRe),
		Motivation: extractLabeled(content, motivationRe),
	})
}

func applyDefaults(a core.AIAnalysis) core.AIAnalysis {
	a.Story = strings.TrimSpace(a.Story)
	a.Insight = strings.TrimSpace(a.Insight)
	a.Motivation = strings.TrimSpace(a.Motivation)
	if a.Story == "" {
		a.Story = defaultStory
	}
	if a.Insight == "" {
		a.Insight = defaultInsight
	}
	if a.Motivation == "" {
		a.Motivation = defaultMotivation
	}
	if a.Tips == nil {
		a.Tips = []string{}
	}
	return a
}

// extractLabeled returns the first labeled-line match, trimmed. The
// patterns stop at line boundaries so only the labeled line is captured.
func extractLabeled(content string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `",`))
}

// extractTips collects enumerated-list items, skipping short fragments,
// capped at maxTips.
func extractTips(content string) []string {
	tips := []string{}
	for _, re := range tipRes {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			tip := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `",`))
			if len(tip) > minTipLength {
				tips = append(tips, tip)
			}
			if len(tips) >= maxTips {
				return tips
			}
		}
		if len(tips) >= maxTips {
			break
		}
	}
	return tips
}
