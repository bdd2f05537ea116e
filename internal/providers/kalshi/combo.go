/**
 * @description
 * Combination-market detection for Kalshi.
 * Combo contracts bundle several legs into one market; their raw titles are
 * unreadable in a dashboard row, so legs are preserved as structured metadata
 * and the display title collapses to "head (+N legs)".
 */

package kalshi

import (
	"fmt"
	"strings"
)

// comboTitleMinLength gates the comma-delimited title heuristic so ordinary
// titles containing a comma are not misread as combos.
const comboTitleMinLength = 60

// ComboInfo describes a detected combination market.
type ComboInfo struct {
	Legs    []string
	Summary string
}

// DetectCombo inspects ticker, selected legs, and title shape.
// Returns nil for plain single-leg markets.
func DetectCombo(ticker, title string, selectedLegs []interface{}) *ComboInfo {
	if legs := legsFromSelected(selectedLegs); len(legs) > 1 {
		return newComboInfo(legs)
	}

	upper := strings.ToUpper(ticker)
	if strings.Contains(upper, "COMBO") || strings.Contains(upper, "MULTI") {
		if legs := legsFromTitle(title); len(legs) > 1 {
			return newComboInfo(legs)
		}
		// Combo ticker but no splittable title: keep the title as a single leg.
		return newComboInfo([]string{strings.TrimSpace(title)})
	}

	if len(title) >= comboTitleMinLength {
		lower := strings.ToLower(title)
		if strings.Contains(lower, "yes ") || strings.Contains(lower, "no ") {
			if legs := legsFromTitle(title); len(legs) > 1 {
				return newComboInfo(legs)
			}
		}
	}

	return nil
}

func legsFromSelected(selectedLegs []interface{}) []string {
	var legs []string
	for _, raw := range selectedLegs {
		switch leg := raw.(type) {
		case string:
			if s := strings.TrimSpace(leg); s != "" {
				legs = append(legs, s)
			}
		case map[string]interface{}:
			// Leg objects carry a human title under one of a few keys.
			for _, key := range []string{"title", "market_title", "ticker"} {
				if s, ok := leg[key].(string); ok && strings.TrimSpace(s) != "" {
					legs = append(legs, strings.TrimSpace(s))
					break
				}
			}
		}
	}
	return legs
}

func legsFromTitle(title string) []string {
	parts := strings.Split(title, ",")
	legs := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			legs = append(legs, s)
		}
	}
	return legs
}

func newComboInfo(legs []string) *ComboInfo {
	summary := legs[0]
	if len(legs) > 1 {
		summary = fmt.Sprintf("%s (+%d legs)", legs[0], len(legs)-1)
	}
	return &ComboInfo{Legs: legs, Summary: summary}
}
