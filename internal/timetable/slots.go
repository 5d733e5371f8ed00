package timetable

import (
	"fmt"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// SlotSettings are the inputs of the time-slot generator.
type SlotSettings struct {
	WorkingDays  []models.Weekday
	StartTime    string
	EndTime      string
	SlotDuration int      // minutes
	BreakSlots   []string // "HH:MM-HH:MM"
}

// GenerateSlots builds the ordered set of bookable slots: one per (day,
// duration-aligned offset), excluding any slot that intersects a break
// window. Identical settings always produce identical ordering.
func GenerateSlots(settings SlotSettings) ([]models.TimeSlot, error) {
	dayStart, err := models.ParseClock(settings.StartTime)
	if err != nil {
		return nil, fmt.Errorf("startTime: %w", err)
	}
	dayEnd, err := models.ParseClock(settings.EndTime)
	if err != nil {
		return nil, fmt.Errorf("endTime: %w", err)
	}
	if dayEnd <= dayStart {
		return nil, fmt.Errorf("endTime %s must be after startTime %s", settings.EndTime, settings.StartTime)
	}
	if settings.SlotDuration <= 0 {
		return nil, fmt.Errorf("slotDuration must be positive")
	}

	breaks := make([]models.TimeRange, 0, len(settings.BreakSlots))
	for _, raw := range settings.BreakSlots {
		window, err := models.ParseTimeRange(raw)
		if err != nil {
			return nil, fmt.Errorf("breakSlots: %w", err)
		}
		breaks = append(breaks, window)
	}

	var slots []models.TimeSlot
	for _, day := range settings.WorkingDays {
		for start := dayStart; start+settings.SlotDuration <= dayEnd; start += settings.SlotDuration {
			window := models.TimeRange{Start: start, End: start + settings.SlotDuration}
			if intersectsAny(window, breaks) {
				continue
			}
			slots = append(slots, models.TimeSlot{
				ID:    fmt.Sprintf("%s-%s", day[:3], models.FormatClock(start)),
				Day:   day,
				Start: window.Start,
				End:   window.End,
			})
		}
	}
	return slots, nil
}

func intersectsAny(window models.TimeRange, breaks []models.TimeRange) bool {
	for _, b := range breaks {
		if window.Overlaps(b) {
			return true
		}
	}
	return false
}
