package parsing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"

	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/schemas"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// Parser recovers a CandidateProfile from a model reply. It is strict on the
// schema's required fields and lenient on everything else: optional fields
// of the wrong shape are coerced to nil or an empty list and logged.
// A Parser holds no per-call state and is safe for concurrent use.
type Parser struct {
	schema    llm.ExtractionSchema
	validator *schemas.Validator
	required  map[string]bool
	logger    zerolog.Logger
}

// NewParser compiles the JSON Schema rendered from schema.
func NewParser(schema llm.ExtractionSchema, logger zerolog.Logger) (*Parser, error) {
	validator, err := schemas.NewValidator(schema.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s schema: %w", schema.Name, err)
	}
	required := make(map[string]bool)
	for _, name := range schema.RequiredFields() {
		required[name] = true
	}
	return &Parser{
		schema:    schema,
		validator: validator,
		required:  required,
		logger:    logger,
	}, nil
}

// ParseCandidateProfile parses raw with a one-off Parser.
func ParseCandidateProfile(raw string, schema llm.ExtractionSchema) (*types.CandidateProfile, error) {
	p, err := NewParser(schema, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	return p.Parse(raw)
}

// Parse strips one code-fence pair, decodes the JSON object, enforces the
// required fields and coerces the optional ones. It returns a
// *MalformedResponseError or *IncompleteExtractionError on failure and never
// a partial profile.
func (p *Parser) Parse(raw string) (*types.CandidateProfile, error) {
	cleaned := llm.CleanJSONBlock(raw)

	fields, err := decodeObject(cleaned)
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Cause: err}
	}

	var coerced []string
	if err := p.validator.ValidateString(cleaned); err != nil {
		var validationErr *schemas.ValidationError
		if !errors.As(err, &validationErr) {
			return nil, &MalformedResponseError{Raw: raw, Cause: err}
		}
		var missing []string
		missing, coerced = p.partition(validationErr)
		if len(missing) > 0 {
			return nil, &IncompleteExtractionError{Missing: missing, Raw: raw}
		}
	}

	profile := p.coerce(fields)
	// Placeholders such as "N/A" pass the schema but coerce to blank.
	if missing := blankIdentity(profile); len(missing) > 0 {
		return nil, &IncompleteExtractionError{Missing: missing, Raw: raw}
	}
	if len(coerced) > 0 {
		p.logger.Warn().
			Strs("fields", coerced).
			Msg("coerced non-conforming optional fields")
	}
	return profile, nil
}

// partition splits violations into required fields (sorted, unique) and the
// optional top-level fields that will be coerced.
func (p *Parser) partition(validationErr *schemas.ValidationError) (missing, optional []string) {
	seenMissing := make(map[string]bool)
	seenOptional := make(map[string]bool)
	for _, fe := range validationErr.Errors {
		field := fe.TopLevel()
		switch {
		case p.required[field]:
			if !seenMissing[field] {
				seenMissing[field] = true
				missing = append(missing, field)
			}
		case !seenOptional[field]:
			seenOptional[field] = true
			optional = append(optional, field)
		}
	}
	sort.Strings(missing)
	sort.Strings(optional)
	return missing, optional
}

func (p *Parser) limit(name string) int {
	f, _ := p.schema.Field(name)
	return f.MaxItems
}

func (p *Parser) enum(name string) []string {
	f, _ := p.schema.Field(name)
	return f.Enum
}

func (p *Parser) coerce(fields map[string]any) *types.CandidateProfile {
	workHistoryField, _ := p.schema.Field("work_history")

	profile := &types.CandidateProfile{
		Name:               requiredString(fields["name"]),
		Title:              requiredString(fields["title"]),
		Email:              optString(fields["email"]),
		Phone:              optString(fields["phone"]),
		Location:           optString(fields["location"]),
		JobSearchLocation:  optString(fields["job_search_location"]),
		Experience:         optString(fields["experience"]),
		ExperienceLevel:    optEnum(fields["experience_level"], p.enum("experience_level"), experienceLevelAliases),
		Education:          optString(fields["education"]),
		Summary:            optString(fields["summary"]),
		Gender:             optEnum(fields["gender"], p.enum("gender"), genderAliases),
		GenderConfidence:   optConfidence(fields["gender_confidence"]),
		Skills:             stringList(fields["skills"], p.limit("skills"), NormalizeSkillName),
		Roles:              stringList(fields["roles"], p.limit("roles"), nil),
		WorkHistory:        workHistory(fields["work_history"], workHistoryField),
		AreasOfImprovement: improvementAreas(fields["areas_of_improvement"], p.limit("areas_of_improvement")),
		SalaryMin:          optInt(fields["salary_min"]),
		SalaryMax:          optInt(fields["salary_max"]),
	}

	if profile.Gender == nil || profile.GenderConfidence == nil || *profile.GenderConfidence < GenderConfidenceThreshold {
		profile.Gender = nil
		profile.GenderConfidence = nil
	}
	return profile
}

func blankIdentity(profile *types.CandidateProfile) []string {
	var missing []string
	if profile.Name == "" {
		missing = append(missing, "name")
	}
	if profile.Title == "" {
		missing = append(missing, "title")
	}
	return missing
}

// decodeObject decodes exactly one JSON object, keeping numbers as json.Number.
func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("response is null, expected a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return fields, nil
}
