package catalog

import "strings"

// Filter keeps the items where any field contains query, ignoring case.
// An empty query returns items as given.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), query) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// FilterPatients matches on name and patient id.
func FilterPatients(patients []Patient, query string) []Patient {
	return Filter(patients, query, func(p Patient) []string {
		return []string{p.Name, p.Key()}
	})
}

// FilterFoods matches on name and category.
func FilterFoods(foods []FoodItem, query string) []FoodItem {
	return Filter(foods, query, func(f FoodItem) []string {
		return []string{f.Name, f.Category}
	})
}

// FilterPlans matches on patient name and, unless status is empty or "all",
// keeps only plans in that status.
func FilterPlans(plans []PlanRecord, query string, status PlanStatus) []PlanRecord {
	plans = Filter(plans, query, func(p PlanRecord) []string {
		return []string{p.PatientName}
	})
	status = status.Normalize()
	if status == "" || status == "all" {
		return plans
	}
	out := make([]PlanRecord, 0, len(plans))
	for _, p := range plans {
		if p.Status.Normalize() == status {
			out = append(out, p)
		}
	}
	return out
}

// PlanStats are the counters above the diet plan list.
type PlanStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Draft     int `json:"draft"`
	Completed int `json:"completed"`
}

// Stats counts plans by status. Published plans count as active.
func Stats(plans []PlanRecord) PlanStats {
	stats := PlanStats{Total: len(plans)}
	for _, p := range plans {
		switch p.Status.Normalize() {
		case PlanActive, PlanPublished:
			stats.Active++
		case PlanDraft:
			stats.Draft++
		case PlanCompleted:
			stats.Completed++
		}
	}
	return stats
}
