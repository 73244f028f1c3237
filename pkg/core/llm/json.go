package llm

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON attempts to fix common JSON errors in model output: missing
// quotes around keys, single quotes, unclosed arrays, trailing commas,
// markdown code fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON repair failed: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (comments, unquoted keys, optional
// commas) and returns standard JSON.
func ParseHJSON(input string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(input), &result); err != nil {
		return "", fmt.Errorf("hjson parse error: %v", err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

// SmartParse decodes model output into schema, trying progressively more
// tolerant parsers until one produces JSON the schema accepts. Code fences
// are stripped first. Order of attempts:
// 1. Standard JSON parse
// 2. Hjson parse (unquoted keys, optional commas, comments)
// 3. JSON repair (structural fixes: unclosed brackets, single quotes)
//
// Hjson runs before repair: repair always produces something, so on hjson
// input it would mangle the values instead of failing over.
func SmartParse(input string, schema interface{}) (string, error) {
	s := stripCodeFence(input)

	if err := json.Unmarshal([]byte(s), schema); err == nil {
		return s, nil
	}

	hjsonResult, err := ParseHJSON(s)
	if err == nil {
		if err := json.Unmarshal([]byte(hjsonResult), schema); err == nil {
			return hjsonResult, nil
		}
	}

	repaired, err := RepairJSON(s)
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	return "", fmt.Errorf("all parsing strategies failed for input")
}
