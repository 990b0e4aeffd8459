/*
packages.go - Preset membership package definitions

These build JSON package definitions for the plans most gyms sell. They
construct JSON directly to avoid an import cycle with the factory package.

USAGE:
  jsonStr := membership.MonthlyRegularJSON("regular-monthly", 1500, 10)
  pkg, err := factory.NewPackageFactory().ParsePackage(jsonStr)
*/
package membership

import (
	"encoding/json"
)

func packageJSON(pj map[string]interface{}) string {
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// MonthlyRegularJSON returns JSON for a one-month regular plan with a
// percentage discount cap.
func MonthlyRegularJSON(id string, fees, maxDiscountPercent float64) string {
	return packageJSON(map[string]interface{}{
		"id":                 id,
		"name":               "Regular Monthly",
		"membership_type":    "REGULAR",
		"fees":               fees,
		"discount_type":      "PERCENTAGE",
		"max_discount":       maxDiscountPercent,
		"duration_in_months": 1,
	})
}

// QuarterlyRegularJSON returns JSON for a three-month regular plan.
func QuarterlyRegularJSON(id string, fees, maxDiscountPercent float64) string {
	return packageJSON(map[string]interface{}{
		"id":                 id,
		"name":               "Regular Quarterly",
		"membership_type":    "REGULAR",
		"fees":               fees,
		"discount_type":      "PERCENTAGE",
		"max_discount":       maxDiscountPercent,
		"duration_in_months": 3,
	})
}

// PTSessionsJSON returns JSON for a personal training block measured in days.
func PTSessionsJSON(id, name string, fees, maxDiscount float64, days int) string {
	return packageJSON(map[string]interface{}{
		"id":               id,
		"name":             name,
		"membership_type":  "PT",
		"fees":             fees,
		"discount_type":    "FIXED",
		"max_discount":     maxDiscount,
		"duration_in_days": days,
	})
}
