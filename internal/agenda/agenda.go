// Package agenda derives the calendar views from the live schedule list:
// per-day counts for the month badges and the sorted day list. Everything is
// a pure function recomputed from the latest snapshot.
package agenda

import (
	"sort"
	"strconv"

	"github.com/lebelle-app/agenda-api/internal/search"
	"github.com/lebelle-app/agenda-api/internal/store"
)

// CountByDay maps each date (YYYY-MM-DD) to its appointment count in a
// single pass.
func CountByDay(schedules []store.Schedule) map[string]int {
	counts := make(map[string]int, len(schedules))
	for _, s := range schedules {
		counts[s.Date]++
	}
	return counts
}

// Badge renders a day count for the calendar cell, capped at "9+".
func Badge(count int) string {
	if count > 9 {
		return "9+"
	}
	return strconv.Itoa(count)
}

// ItemsForDay filters the selected day and sorts by start time ascending.
// Lexicographic comparison is correct because start times are zero-padded
// HH:MM.
func ItemsForDay(schedules []store.Schedule, day string) []store.Schedule {
	if day == "" {
		return nil
	}
	items := make([]store.Schedule, 0)
	for _, s := range schedules {
		if s.Date == day {
			items = append(items, s)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].StartTime < items[j].StartTime
	})
	return items
}

// FormatTimeInput masks free-form time entry into HH:MM, keeping at most
// four digits. The mask is positional: "0930" becomes "09:30".
func FormatTimeInput(v string) string {
	digits := search.OnlyDigits(v)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + ":" + digits[2:]
}

// FormatDateBR renders YYYY-MM-DD as DD/MM/YYYY for display.
func FormatDateBR(ymd string) string {
	if len(ymd) < 10 {
		return ymd
	}
	return ymd[8:10] + "/" + ymd[5:7] + "/" + ymd[0:4]
}
