package services

import (
	"encoding/json"
	"sort"
	"strings"

	"errand-route-service/internal/domain"
)

// packingRules maps keywords found in a task's title or purpose to the
// items worth bringing along.
var packingRules = map[string][]string{
	"dmv":         {"driver's license", "proof of insurance", "vehicle registration"},
	"bank":        {"photo ID", "account number"},
	"pharmacy":    {"insurance card", "prescription info"},
	"post office": {"package", "shipping address"},
	"doctor":      {"insurance card", "photo ID", "medication list"},
	"dentist":     {"insurance card", "photo ID"},
	"grocery":     {"shopping list", "reusable bags"},
	"return":      {"item to return", "receipt"},
	"library":     {"library card", "books to return"},
	"gym":         {"gym bag", "water bottle"},
	"dry clean":   {"clothes to drop off", "pickup ticket"},
	"airport":     {"photo ID", "boarding pass"},
	"notary":      {"photo ID", "documents to notarize"},
	"haircut":     {"payment method"},
	"vet":         {"pet records", "leash or carrier"},
}

// Always worth having in the car.
var defaultEssentials = []string{"phone", "wallet", "keys"}

// ChecklistEntry is one stop's packing list.
type ChecklistEntry struct {
	TaskID string   `json:"task_id"`
	Title  string   `json:"title"`
	Items  []string `json:"items"`
}

// PrepChecklist groups items per stop plus a deduplicated list for the
// whole day.
type PrepChecklist struct {
	PerTask      []ChecklistEntry `json:"per_task"`
	Consolidated []string         `json:"consolidated"`
	Essentials   []string         `json:"essentials"`
}

// BuildChecklist derives packing lists for the day's tasks from the rule
// table and each task's explicit required items.
func BuildChecklist(tasks []domain.Task) PrepChecklist {
	out := PrepChecklist{Essentials: defaultEssentials}
	seen := make(map[string]bool)

	for _, t := range tasks {
		items := itemsForTask(t)
		if len(items) == 0 {
			continue
		}

		out.PerTask = append(out.PerTask, ChecklistEntry{
			TaskID: t.ID,
			Title:  t.Title,
			Items:  items,
		})

		for _, it := range items {
			key := strings.ToLower(it)
			if !seen[key] {
				seen[key] = true
				out.Consolidated = append(out.Consolidated, it)
			}
		}
	}

	sort.Strings(out.Consolidated)
	return out
}

// itemsForTask combines rule-table matches with the task's own required
// items, deduplicated case-insensitively.
func itemsForTask(t domain.Task) []string {
	var items []string
	seen := make(map[string]bool)

	add := func(item string) {
		item = strings.TrimSpace(item)
		if item == "" {
			return
		}
		key := strings.ToLower(item)
		if !seen[key] {
			seen[key] = true
			items = append(items, item)
		}
	}

	haystack := strings.ToLower(t.Title + " " + t.Purpose)
	keywords := make([]string, 0, len(packingRules))
	for kw := range packingRules {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			for _, item := range packingRules[kw] {
				add(item)
			}
		}
	}

	for _, item := range t.RequiredItems {
		for _, parsed := range parseRequiredItem(item) {
			add(parsed)
		}
	}

	return items
}

// parseRequiredItem tolerates items stored as a JSON array string or as
// newline-separated text, alongside plain values.
func parseRequiredItem(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list
		}
	}

	if strings.Contains(raw, "\n") {
		return strings.Split(raw, "\n")
	}

	return []string{raw}
}
