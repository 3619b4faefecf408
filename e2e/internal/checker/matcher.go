package checker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MatchesExpectation checks if actual value matches expected value.
// Returns (true, "") on match, (false, "reason") on mismatch.
//
// String expectations support two matcher forms: "~pattern~" matches the
// value against a regular expression, and ">n", "<n", ">=n", "<=n" compare
// numerically. Map expectations are matched key by key, recursively, and
// ignore extra keys in the actual value.
func MatchesExpectation(actual, expected interface{}) (bool, string) {
	// Handle nil cases
	if expected == nil && actual == nil {
		return true, ""
	}
	if expected == nil {
		return false, fmt.Sprintf("expected nil, got %v", actual)
	}
	if actual == nil {
		return false, fmt.Sprintf("expected %v, got nil", expected)
	}

	switch exp := expected.(type) {
	case string:
		// Check for regex matcher: ~pattern~
		if len(exp) > 1 && strings.HasPrefix(exp, "~") && strings.HasSuffix(exp, "~") {
			return matchRegex(actual, strings.Trim(exp, "~"))
		}

		// Check for comparison matchers: >value, <value, >=value, <=value
		if strings.HasPrefix(exp, ">") || strings.HasPrefix(exp, "<") {
			return matchComparison(actual, exp)
		}

		actualStr, ok := actual.(string)
		if !ok {
			return false, fmt.Sprintf("expected string, got %T", actual)
		}
		if actualStr != exp {
			return false, fmt.Sprintf("expected %q, got %q", exp, actualStr)
		}
		return true, ""

	case bool:
		actualBool, ok := actual.(bool)
		if !ok {
			return false, fmt.Sprintf("expected bool, got %T", actual)
		}
		if actualBool != exp {
			return false, fmt.Sprintf("expected %v, got %v", exp, actualBool)
		}
		return true, ""

	case int, int64, float64:
		return matchNumber(actual, expected)

	case map[string]interface{}:
		return matchMap(actual, exp)

	default:
		return false, fmt.Sprintf("unsupported expectation type %T", expected)
	}
}

// matchNumber performs numeric matching with type conversion
func matchNumber(actual, expected interface{}) (bool, string) {
	actualFloat, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("actual value is not numeric: %v", actual)
	}

	expectedFloat, err := toFloat64(expected)
	if err != nil {
		return false, fmt.Sprintf("expected value is not numeric: %v", expected)
	}

	if actualFloat == expectedFloat {
		return true, ""
	}

	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

// matchRegex checks if actual matches a regex pattern
func matchRegex(actual interface{}, pattern string) (bool, string) {
	actualStr := fmt.Sprintf("%v", actual)

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)
	}

	if re.MatchString(actualStr) {
		return true, ""
	}

	return false, fmt.Sprintf("value %q does not match pattern ~%s~", actualStr, pattern)
}

// matchComparison checks if actual satisfies a comparison (>, <, >=, <=)
func matchComparison(actual interface{}, comparison string) (bool, string) {
	actualFloat, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("cannot compare non-numeric value: %v", actual)
	}

	var op, valueStr string
	switch {
	case strings.HasPrefix(comparison, ">="):
		op, valueStr = ">=", strings.TrimPrefix(comparison, ">=")
	case strings.HasPrefix(comparison, "<="):
		op, valueStr = "<=", strings.TrimPrefix(comparison, "<=")
	case strings.HasPrefix(comparison, ">"):
		op, valueStr = ">", strings.TrimPrefix(comparison, ">")
	case strings.HasPrefix(comparison, "<"):
		op, valueStr = "<", strings.TrimPrefix(comparison, "<")
	default:
		return false, fmt.Sprintf("invalid comparison: %s", comparison)
	}

	expectedFloat, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		return false, fmt.Sprintf("invalid comparison value: %s", valueStr)
	}

	var result bool
	switch op {
	case ">":
		result = actualFloat > expectedFloat
	case "<":
		result = actualFloat < expectedFloat
	case ">=":
		result = actualFloat >= expectedFloat
	case "<=":
		result = actualFloat <= expectedFloat
	}

	if result {
		return true, ""
	}

	return false, fmt.Sprintf("expected value %s %v, got %v", op, expectedFloat, actualFloat)
}

// matchMap performs recursive matching on maps
func matchMap(actual interface{}, expected map[string]interface{}) (bool, string) {
	actualMap, ok := actual.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("expected map, got %T", actual)
	}

	// Check all expected keys
	for key, expectedValue := range expected {
		actualValue, exists := actualMap[key]
		if !exists {
			return false, fmt.Sprintf("missing key %q", key)
		}

		matches, reason := MatchesExpectation(actualValue, expectedValue)
		if !matches {
			return false, fmt.Sprintf("key %q: %s", key, reason)
		}
	}

	return true, ""
}

// toFloat64 converts the numeric types YAML and JSON decoding produce
func toFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("not a numeric type: %T", val)
	}
}
