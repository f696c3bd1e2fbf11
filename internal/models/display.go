// ABOUTME: Display registry for metric names - units, titles, categories.
// ABOUTME: Covers ring-tracker, fitness-band, and user-entered metrics.
package models

import "strings"

// MetricUnits maps known metric names to their display units. Metrics not
// listed here (user-entered ones) display without a unit.
var MetricUnits = map[string]string{
	"average_hrv":          "ms",
	"average_heart_rate":   "bpm",
	"average_breath":       "rpm",
	"deep_sleep_duration":  "min",
	"rem_sleep_duration":   "min",
	"awake_time":           "min",
	"total_sleep_duration": "min",

	"fitbit_steps":              "steps",
	"fitbit_calories_burned":    "kcal",
	"fitbit_distance":           "km",
	"fitbit_active_minutes":     "min",
	"fitbit_floors":             "floors",
	"fitbit_elevation":          "m",
	"fitbit_resting_heart_rate": "bpm",
	"fitbit_sleep_duration":     "min",
	"fitbit_awake_time":         "min",
	"fitbit_sleep_efficiency":   "%",
	"fitbit_time_in_bed":        "min",
	"fitbit_sleep_latency":      "min",
	"fitbit_deep_sleep_minutes": "min",
	"fitbit_light_sleep_minutes": "min",
	"fitbit_rem_sleep_minutes":  "min",
	"fitbit_wake_minutes":       "min",
	"fitbit_weight":             "kg",
	"fitbit_bmi":                "",
}

// MetricUnit returns the display unit for a metric name, or "" when unknown.
func MetricUnit(name string) string {
	return MetricUnits[name]
}

// DisplayName converts a snake_case metric name to a title, preserving
// common abbreviations (HRV, REM, VO2, BMI).
func DisplayName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		switch strings.ToLower(w) {
		case "hrv":
			words[i] = "HRV"
		case "rem":
			words[i] = "REM"
		case "vo2":
			words[i] = "VO2"
		case "bmi":
			words[i] = "BMI"
		default:
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
	}
	return strings.Join(words, " ")
}

// MetricCategory buckets a metric name for dashboard grouping.
func MetricCategory(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range []string{"sleep", "rem", "deep", "awake"} {
		if strings.Contains(lower, kw) {
			return "mental"
		}
	}
	for _, kw := range []string{"steps", "activity", "calorie", "distance", "floors", "elevation"} {
		if strings.Contains(lower, kw) {
			return "fitness"
		}
	}
	return "vital"
}
