package parsing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"node":       "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
}

// NormalizeSkillName maps known variants to a canonical name; other skills
// are returned trimmed with their original casing.
func NormalizeSkillName(skillName string) string {
	normalized := strings.Join(strings.Fields(skillName), " ")
	if canonical, ok := skillNormalizations[strings.ToLower(normalized)]; ok {
		return canonical
	}
	return normalized
}

// placeholderTokens are string values models use in place of JSON null.
var placeholderTokens = map[string]bool{
	"null": true, "none": true, "n/a": true, "unknown": true, "not specified": true, "not provided": true,
}

// shortNullTokens can also be real values (the name "Na"), so they only
// blank optional fields.
var shortNullTokens = map[string]bool{"na": true, "-": true}

var experienceLevelAliases = map[string]string{
	"entry": types.ExperienceEntry, "entrylevel": types.ExperienceEntry, "junior": types.ExperienceEntry, "graduate": types.ExperienceEntry,
	"mid": types.ExperienceMidLevel, "midlevel": types.ExperienceMidLevel, "intermediate": types.ExperienceMidLevel,
	"senior": types.ExperienceSenior, "sr": types.ExperienceSenior,
	"lead": types.ExperienceLead, "principal": types.ExperienceLead, "staff": types.ExperienceLead,
	"executive": types.ExperienceExecutive, "director": types.ExperienceExecutive, "vp": types.ExperienceExecutive,
}

var genderAliases = map[string]string{
	"male": types.GenderMale, "m": types.GenderMale, "man": types.GenderMale,
	"female": types.GenderFemale, "f": types.GenderFemale, "woman": types.GenderFemale,
}

var presentAliases = map[string]bool{"present": true, "current": true, "now": true, "ongoing": true, "today": true}

// requiredString returns v as trimmed text. Numbers are formatted; anything
// else, and placeholders, yield "".
func requiredString(v any) string {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if placeholderTokens[strings.ToLower(s)] {
			return ""
		}
		return s
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// plainString is requiredString for optional values, where short
// null-like tokens are blank too.
func plainString(v any) string {
	s := requiredString(v)
	if shortNullTokens[strings.ToLower(s)] {
		return ""
	}
	return s
}

func optString(v any) *string {
	s := plainString(v)
	if s == "" {
		return nil
	}
	return &s
}

// enumKey lowercases and drops everything but letters, so "Mid Level",
// "mid-level" and "MID_LEVEL" compare equal.
func enumKey(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// optEnum resolves v against allowed values (case and punctuation
// insensitive) and then aliases; unknown values are nil.
func optEnum(v any, allowed []string, aliases map[string]string) *string {
	s := plainString(v)
	if s == "" {
		return nil
	}
	key := enumKey(s)
	for _, a := range allowed {
		if enumKey(a) == key {
			out := a
			return &out
		}
	}
	if out, ok := aliases[key]; ok {
		return &out
	}
	return nil
}

// optInt accepts integers, floats (truncated) and numeric strings such as
// "$120,000" or "95k". Negative values are treated as unknown.
func optInt(v any) *int {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, ok := parseAmount(t)
		if !ok {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func parseAmount(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, cut := range []string{"usd", "$", "€", "£", ",", " "} {
		s = strings.ReplaceAll(s, cut, "")
	}
	multiplier := 1.0
	if strings.HasSuffix(s, "k") {
		multiplier = 1000
		s = strings.TrimSuffix(s, "k")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * multiplier, true
}

// optConfidence accepts a fraction in [0,1] or a percentage (as a number
// above 1 or a "90%" string).
func optConfidence(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		percent := strings.HasSuffix(s, "%")
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return nil
		}
		f = parsed
		if percent {
			f /= 100
		}
	default:
		return nil
	}
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f < 0 || f > 1 {
		return nil
	}
	return &f
}

// stringList coerces v to a de-duplicated list of non-empty strings capped
// at limit (0 means no cap). A single string is split on commas.
func stringList(v any, limit int, normalize func(string) string) []string {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case string:
		for _, part := range strings.Split(t, ",") {
			items = append(items, part)
		}
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		s := plainString(item)
		if normalize != nil {
			s = normalize(s)
		}
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// subfieldLimit returns MaxItems of a nested field, or 0 when absent.
func subfieldLimit(field llm.SchemaField, name string) int {
	for _, f := range field.Fields {
		if f.Name == name {
			return f.MaxItems
		}
	}
	return 0
}

func workHistory(v any, field llm.SchemaField) []types.WorkHistoryEntry {
	limit := field.MaxItems
	items, _ := v.([]any)
	out := make([]types.WorkHistoryEntry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := types.WorkHistoryEntry{
			Company:      plainString(obj["company"]),
			Position:     plainString(obj["position"]),
			Duration:     optString(obj["duration"]),
			Description:  optString(obj["description"]),
			StartDate:    optString(obj["start_date"]),
			EndDate:      endDate(obj["end_date"]),
			Achievements: stringList(obj["achievements"], subfieldLimit(field, "achievements"), nil),
			Skills:       stringList(obj["skills"], subfieldLimit(field, "skills"), NormalizeSkillName),
		}
		if entry.Company == "" && entry.Position == "" {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func endDate(v any) *string {
	s := optString(v)
	if s != nil && presentAliases[strings.ToLower(*s)] {
		present := types.PresentEndDate
		return &present
	}
	return s
}

func improvementAreas(v any, limit int) []types.ImprovementArea {
	items, _ := v.([]any)
	out := make([]types.ImprovementArea, 0, len(items))
	for _, item := range items {
		var area types.ImprovementArea
		switch t := item.(type) {
		case map[string]any:
			area = types.ImprovementArea{Title: plainString(t["title"]), Description: plainString(t["description"])}
		default:
			area = types.ImprovementArea{Title: plainString(t)}
		}
		if area.Title == "" {
			continue
		}
		out = append(out, area)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
