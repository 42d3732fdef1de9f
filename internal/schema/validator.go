package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"searchmark/internal/models"
)

// Validate parses raw model text against the contract. It walks the
// rejection points in order: syntax, field presence, type/range, and for
// folder decisions the non-emptiness of the reference. Validity of the
// reference against an actual tree is the resolver's job.
func Validate(raw string, c Contract) (models.StructuredOutput, *models.ValidationDefect) {
	payload, ok := extractJSON(raw)
	if !ok {
		return nil, &models.ValidationDefect{
			Kind: models.DefectMalformedSyntax,
			Err:  fmt.Errorf("response is not a JSON object"),
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, &models.ValidationDefect{Kind: models.DefectMalformedSyntax, Err: err}
	}

	switch c.Kind {
	case models.TaskSummarize:
		return validateSummary(fields, c)
	case models.TaskClassifyFolder:
		return validateFolderDecision(fields, c)
	}
	return nil, &models.ValidationDefect{
		Kind: models.DefectInvalidValue,
		Err:  fmt.Errorf("unknown task kind %q", c.Kind),
	}
}

func validateSummary(fields map[string]json.RawMessage, c Contract) (models.StructuredOutput, *models.ValidationDefect) {
	title, defect := requiredString(fields, "title")
	if defect != nil {
		return nil, defect
	}
	summary, defect := requiredString(fields, "summary")
	if defect != nil {
		return nil, defect
	}

	// Bounds count characters, not bytes, so multibyte text is not
	// penalized.
	if utf8.RuneCountInString(title) > c.TitleMaxChars {
		return nil, invalidValue("title", fmt.Errorf("title exceeds %d chars", c.TitleMaxChars))
	}
	if utf8.RuneCountInString(summary) > c.SummaryMaxChars {
		return nil, invalidValue("summary", fmt.Errorf("summary exceeds %d chars", c.SummaryMaxChars))
	}

	var keywords []string
	if raw, present := fields["keywords"]; present && !isNull(raw) {
		if err := json.Unmarshal(raw, &keywords); err != nil {
			return nil, invalidValue("keywords", err)
		}
	}

	return models.Summary{Title: title, Summary: summary, Keywords: keywords}, nil
}

func validateFolderDecision(fields map[string]json.RawMessage, c Contract) (models.StructuredOutput, *models.ValidationDefect) {
	folder, defect := presentString(fields, "recommended_folder")
	if defect != nil {
		return nil, defect
	}
	reasoning, defect := requiredString(fields, "reasoning")
	if defect != nil {
		return nil, defect
	}

	var newFolder string
	if raw, present := fields["new_folder_name"]; present && !isNull(raw) {
		if err := json.Unmarshal(raw, &newFolder); err != nil {
			return nil, invalidValue("new_folder_name", err)
		}
	}

	// The reference must be non-empty unless this contract allows the
	// new-folder answer shape, where an empty reference plus a suggested
	// name means "nothing fits, create one".
	if strings.TrimSpace(folder) == "" {
		if !c.AllowNewFolder || strings.TrimSpace(newFolder) == "" {
			return nil, invalidValue("recommended_folder",
				fmt.Errorf("recommended_folder must be a non-empty string"))
		}
	}

	var confidence *float64
	if raw, present := fields["confidence"]; present && !isNull(raw) {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, invalidValue("confidence", err)
		}
		if v < 0 || v > 1 {
			return nil, invalidValue("confidence", fmt.Errorf("confidence %v outside [0, 1]", v))
		}
		confidence = &v
	}

	return models.FolderDecision{
		Folder:        strings.TrimSpace(folder),
		NewFolderName: strings.TrimSpace(newFolder),
		Reasoning:     reasoning,
		Confidence:    confidence,
	}, nil
}

// requiredString rejects absent, null, non-string and empty values.
func requiredString(fields map[string]json.RawMessage, name string) (string, *models.ValidationDefect) {
	s, defect := presentString(fields, name)
	if defect != nil {
		return "", defect
	}
	if strings.TrimSpace(s) == "" {
		return "", invalidValue(name, fmt.Errorf("%s must be non-empty", name))
	}
	return s, nil
}

// presentString rejects absent, null and non-string values but accepts "".
func presentString(fields map[string]json.RawMessage, name string) (string, *models.ValidationDefect) {
	raw, present := fields[name]
	if !present || isNull(raw) {
		return "", &models.ValidationDefect{
			Kind:  models.DefectMissingField,
			Field: name,
			Err:   fmt.Errorf("required field %q is absent", name),
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalidValue(name, err)
	}
	return s, nil
}

func invalidValue(field string, err error) *models.ValidationDefect {
	return &models.ValidationDefect{Kind: models.DefectInvalidValue, Field: field, Err: err}
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// extractJSON recovers the JSON object from raw model text. Models often
// wrap the object in markdown fences or lead with a sentence of prose;
// both are repaired here. Anything that still fails to parse as an object
// is a malformed-syntax defect.
func extractJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return s, true
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}
