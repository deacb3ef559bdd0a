// Package masking redacts subscriber contact details before they are
// written to audit metadata.
package masking

import "strings"

const maskToken = "****"

// MaskPhone keeps the last four digits of a phone number.
func MaskPhone(value string) string {
	digits := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			digits = append(digits, value[i])
		}
	}
	if len(digits) <= 4 {
		if len(digits) == 0 {
			return ""
		}
		return maskToken
	}
	return maskToken + string(digits[len(digits)-4:])
}

// MaskSecret keeps a short suffix of an opaque reference such as a payment
// transaction id.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskFields returns a copy of metadata with the named string fields masked
// by fn. Other keys are copied unchanged.
func MaskFields(metadata map[string]any, fn func(string) string, keys ...string) map[string]any {
	if len(metadata) == 0 {
		return nil
	}
	masked := make(map[string]any, len(metadata))
	for key, value := range metadata {
		masked[key] = value
	}
	for _, key := range keys {
		if s, ok := masked[key].(string); ok {
			masked[key] = fn(s)
		}
	}
	return masked
}
