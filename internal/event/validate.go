package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks the shape of a decoded login event. It returns whether
// the event is acceptable and the full list of violations in the order they
// were found. Only the top-level type check short-circuits; all other rules
// are collected so the caller gets the complete list in one pass.
func Validate(payload any) (bool, []string) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return false, []string{"event must be a JSON object"}
	}

	var errs []string

	username, present := obj["username"]
	if !present {
		errs = append(errs, "username is required")
	} else if s, ok := username.(string); !ok || strings.TrimSpace(s) == "" {
		errs = append(errs, "username must be a non-empty string")
	}

	if device, present := obj["device"]; present {
		dev, ok := device.(map[string]any)
		if !ok {
			errs = append(errs, "device must be an object")
		} else if screen, present := dev["screen"]; present {
			scr, ok := screen.(map[string]any)
			if !ok {
				errs = append(errs, "device.screen must be an object")
			} else {
				for _, dim := range []string{"width", "height"} {
					if v, present := scr[dim]; present && !isNumber(v) {
						errs = append(errs, fmt.Sprintf("device.screen.%s must be a number", dim))
					}
				}
			}
		}
	}

	return len(errs) == 0, errs
}

// isNumber accepts the numeric forms encoding/json produces for a decoded
// interface value.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, json.Number:
		return true
	default:
		return false
	}
}
