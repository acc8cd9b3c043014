package parse

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the JSON objects embedded in a blob of text, in order.
// It scans for brace-balanced candidates (ignoring braces inside strings) and
// keeps only the ones that actually parse. Fenced ```json blocks are tried
// first since those delimit the payload explicitly.
func ExtractJSON(input string) []string {
	var ret []string

	if blocks, err := ExtractCodeBlocks(input); err == nil {
		for _, block := range blocks {
			lang := strings.ToLower(block.Language)
			if lang != "" && lang != "json" {
				continue
			}
			candidate := strings.TrimSpace(block.Code)
			if isValidJSONObject(candidate) {
				ret = append(ret, candidate)
			}
		}
	}
	if len(ret) > 0 {
		return ret
	}

	for _, candidate := range scanBalancedObjects(input) {
		if isValidJSONObject(candidate) {
			ret = append(ret, candidate)
		}
	}

	return ret
}

func isValidJSONObject(s string) bool {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return false
	}
	var v map[string]interface{}
	return json.Unmarshal([]byte(s), &v) == nil
}

func scanBalancedObjects(input string) []string {
	var candidates []string

	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range input {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidates = append(candidates, input[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}
