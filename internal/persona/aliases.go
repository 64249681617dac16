package persona

// FieldAliases maps each canonical snake_case persona field to the
// camelCase name the web client sends.
var FieldAliases = map[string]string{
	"id":                   "id",
	"user_id":              "userId",
	"name":                 "name",
	"title":                "title",
	"email":                "email",
	"phone":                "phone",
	"location":             "location",
	"job_search_location":  "jobSearchLocation",
	"experience":           "experience",
	"experience_level":     "experienceLevel",
	"education":            "education",
	"summary":              "summary",
	"gender":               "gender",
	"skills":               "skills",
	"roles":                "roles",
	"work_history":         "workHistory",
	"areas_of_improvement": "areasOfImprovement",
	"salary_min":           "salaryMin",
	"salary_max":           "salaryMax",
	"avatar_url":           "avatarUrl",
	"cv_file_name":         "cvFileName",
	"cv_file_url":          "cvFileUrl",
	"is_active":            "isActive",
	"market_demand":        "marketDemand",
	"global_matches":       "globalMatches",
	"confidence_score":     "confidenceScore",
	"created_at":           "createdAt",
	"updated_at":           "updatedAt",
}

var camelToSnake = func() map[string]string {
	m := make(map[string]string, len(FieldAliases))
	for snake, camel := range FieldAliases {
		m[camel] = snake
	}
	return m
}()

// Canonical returns the snake_case name for either spelling of a field.
// Unknown names are returned unchanged with ok == false.
func Canonical(name string) (string, bool) {
	if _, ok := FieldAliases[name]; ok {
		return name, true
	}
	if snake, ok := camelToSnake[name]; ok {
		return snake, true
	}
	return name, false
}

// CamelCase returns the camelCase spelling of a canonical field name.
func CamelCase(name string) string {
	if camel, ok := FieldAliases[name]; ok {
		return camel
	}
	return name
}

// ToCanonical rewrites the keys of a payload that may use either naming to
// snake_case. When both spellings of a field are present the snake_case
// value wins. Unknown keys are kept so callers can reject them.
func ToCanonical[V any](payload map[string]V) map[string]V {
	out := make(map[string]V, len(payload))
	for key, value := range payload {
		canonical, _ := Canonical(key)
		if canonical != key {
			if _, dup := payload[canonical]; dup {
				continue
			}
		}
		out[canonical] = value
	}
	return out
}

// ToCamel rewrites canonical keys to camelCase.
func ToCamel[V any](payload map[string]V) map[string]V {
	out := make(map[string]V, len(payload))
	for key, value := range payload {
		out[CamelCase(key)] = value
	}
	return out
}
