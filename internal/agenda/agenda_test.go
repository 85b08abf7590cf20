package agenda_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lebelle-app/agenda-api/internal/agenda"
	"github.com/lebelle-app/agenda-api/internal/store"
)

func TestCountByDay(t *testing.T) {
	schedules := []store.Schedule{
		{Date: "2024-01-05", StartTime: "14:30"},
		{Date: "2024-01-05", StartTime: "09:00"},
		{Date: "2024-01-06", StartTime: "10:00"},
	}

	counts := agenda.CountByDay(schedules)
	require.Equal(t, map[string]int{
		"2024-01-05": 2,
		"2024-01-06": 1,
	}, counts)
}

func TestBadgeCapsAtNinePlus(t *testing.T) {
	require.Equal(t, "1", agenda.Badge(1))
	require.Equal(t, "9", agenda.Badge(9))
	require.Equal(t, "9+", agenda.Badge(10))
	require.Equal(t, "9+", agenda.Badge(42))
}

func TestItemsForDaySortsByStartTime(t *testing.T) {
	schedules := []store.Schedule{
		{Date: "2024-01-05", StartTime: "14:30", Title: "later"},
		{Date: "2024-01-06", StartTime: "08:00", Title: "other day"},
		{Date: "2024-01-05", StartTime: "09:00", Title: "earlier"},
	}

	items := agenda.ItemsForDay(schedules, "2024-01-05")
	require.Len(t, items, 2)
	require.Equal(t, "09:00", items[0].StartTime)
	require.Equal(t, "14:30", items[1].StartTime)
}

func TestItemsForDayEmptyDay(t *testing.T) {
	schedules := []store.Schedule{{Date: "2024-01-05", StartTime: "09:00"}}
	require.Empty(t, agenda.ItemsForDay(schedules, "2024-02-01"))
	require.Nil(t, agenda.ItemsForDay(schedules, ""))
}

func TestFormatTimeInput(t *testing.T) {
	require.Equal(t, "", agenda.FormatTimeInput(""))
	require.Equal(t, "0", agenda.FormatTimeInput("0"))
	require.Equal(t, "09", agenda.FormatTimeInput("09"))
	require.Equal(t, "09:3", agenda.FormatTimeInput("093"))
	require.Equal(t, "09:30", agenda.FormatTimeInput("0930"))
	require.Equal(t, "09:30", agenda.FormatTimeInput("09:30"))
	require.Equal(t, "09:30", agenda.FormatTimeInput("09305555"))
	require.Equal(t, "14:00", agenda.FormatTimeInput("14h00"))
}

func TestFormatDateBR(t *testing.T) {
	require.Equal(t, "05/01/2024", agenda.FormatDateBR("2024-01-05"))
	require.Equal(t, "bad", agenda.FormatDateBR("bad"))
}
