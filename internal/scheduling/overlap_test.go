package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

func TestOverlapsIsSymmetric(t *testing.T) {
	for aStart := 0; aStart < 5; aStart++ {
		for aEnd := aStart + 1; aEnd <= 5; aEnd++ {
			for bStart := 0; bStart < 5; bStart++ {
				for bEnd := bStart + 1; bEnd <= 5; bEnd++ {
					assert.Equal(t, Overlaps(aStart, aEnd, bStart, bEnd), Overlaps(bStart, bEnd, aStart, aEnd),
						"[%d,%d) vs [%d,%d)", aStart, aEnd, bStart, bEnd)
				}
			}
		}
	}
}

func TestOverlapsCases(t *testing.T) {
	nine := models.MustClockTime("09:00")
	ten := models.MustClockTime("10:00")
	half := models.MustClockTime("09:30")
	eleven := models.MustClockTime("11:00")

	cases := []struct {
		name           string
		aStart, aEnd   models.ClockTime
		bStart, bEnd   models.ClockTime
		expectsOverlap bool
	}{
		{"touching end to start", nine, ten, ten, eleven, false},
		{"touching start to end", ten, eleven, nine, ten, false},
		{"partial", nine, ten, half, eleven, true},
		{"contained", nine, eleven, half, ten, true},
		{"identical", nine, ten, nine, ten, true},
		{"disjoint", nine, half, ten, eleven, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectsOverlap, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
		})
	}
}

func TestPeriodOverlaps(t *testing.T) {
	termA := Period{Start: date("2025-08-01"), End: date("2025-12-15")}
	termB := Period{Start: date("2026-01-01"), End: date("2026-05-01")}
	summer := Period{Start: date("2025-12-01"), End: date("2026-01-15")}
	adjacent := Period{Start: date("2025-12-15"), End: date("2025-12-31")}

	assert.False(t, termA.Overlaps(termB))
	assert.True(t, termA.Overlaps(summer))
	assert.True(t, summer.Overlaps(termB))
	assert.False(t, termA.Overlaps(adjacent))
	assert.True(t, termA.Valid())
	assert.False(t, Period{Start: termA.End, End: termA.Start}.Valid())
}

func TestTemporalPeriodCollides(t *testing.T) {
	termA := Period{Start: date("2025-08-01"), End: date("2025-12-15")}
	termB := Period{Start: date("2026-01-01"), End: date("2026-05-01")}
	base := TemporalPeriod{Period: termA, Day: models.Monday, Start: models.MustClockTime("09:00"), End: models.MustClockTime("10:00")}

	other := base
	other.Start, other.End = models.MustClockTime("09:30"), models.MustClockTime("10:30")
	assert.True(t, base.Collides(other))

	other.Period = termB
	assert.True(t, base.SlotOverlaps(other))
	assert.False(t, base.Collides(other))

	other.Period = termA
	other.Day = models.Tuesday
	assert.False(t, base.Collides(other))
}

func date(raw string) time.Time {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return parsed
}
