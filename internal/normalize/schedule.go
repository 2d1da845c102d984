package normalize

import (
	"fmt"
	"math"

	"boiler_collector/internal/models"
	"boiler_collector/internal/payload"
)

// Resolve returns the scheduled temperature for weekday (0 = Monday) and
// minute of day, and the index of the matching entry. The first entry with
// start <= minute < end wins; otherwise the base temperature applies with index -1.
func Resolve(s *models.Schedule, weekday, minute int) (float64, int) {
	if weekday < 0 || weekday >= models.DaysPerWeek {
		return s.BaseTemp, -1
	}
	for i, e := range s.Days[weekday] {
		if e.Contains(minute) {
			return e.Temp, i
		}
	}
	return s.BaseTemp, -1
}

// convertSchedule turns the wire triples into entries. Malformed triples are
// skipped, overlaps are reported and kept in device order.
func convertSchedule(field string, raw *payload.RawSchedule, w *warnings) *models.Schedule {
	if raw == nil {
		return nil
	}
	s := &models.Schedule{}
	if raw.BaseTemp != nil {
		s.BaseTemp = *raw.BaseTemp
		w.checkRange(field+".base_temp", raw.BaseTemp, tempBounds)
	}

	if n := len(raw.Entries); n != models.DaysPerWeek {
		days := float64(n)
		w.add(field+".entries", models.WarnScheduleDays,
			fmt.Sprintf("expected %d weekdays, got %d", models.DaysPerWeek, n), &days)
	}

	for day, triples := range raw.Entries {
		if day >= models.DaysPerWeek {
			break
		}
		entries := make([]models.ScheduleEntry, 0, len(triples))
		for i, t := range triples {
			name := fmt.Sprintf("%s.entries[%d][%d]", field, day, i)
			e, err := toEntry(t)
			if err != nil {
				w.add(name, models.WarnScheduleMalformed, err.Error(), nil)
				continue
			}
			w.checkRange(name, &e.Temp, tempBounds)
			entries = append(entries, e)
		}
		if i := firstOverlap(entries); i > 0 {
			w.add(fmt.Sprintf("%s.entries[%d]", field, day), models.WarnScheduleOverlap,
				fmt.Sprintf("entry %d starts before entry %d ends", i, i-1), nil)
		}
		s.Days[day] = entries
	}
	return s
}

func toEntry(t []float64) (models.ScheduleEntry, error) {
	if len(t) != 3 {
		return models.ScheduleEntry{}, fmt.Errorf("want [start, end, temp], got %d values", len(t))
	}
	start, end := t[0], t[1]
	if start != math.Trunc(start) || end != math.Trunc(end) {
		return models.ScheduleEntry{}, fmt.Errorf("minutes must be whole numbers: %g..%g", start, end)
	}
	if start < 0 || end > models.MinutesPerDay || start >= end {
		return models.ScheduleEntry{}, fmt.Errorf("invalid interval %g..%g", start, end)
	}
	return models.ScheduleEntry{StartMinute: int(start), EndMinute: int(end), Temp: t[2]}, nil
}

// firstOverlap returns the index of the first entry that starts before its
// predecessor ends, or 0 when the day is ordered and disjoint.
func firstOverlap(entries []models.ScheduleEntry) int {
	for i := 1; i < len(entries); i++ {
		if entries[i].StartMinute < entries[i-1].EndMinute {
			return i
		}
	}
	return 0
}
