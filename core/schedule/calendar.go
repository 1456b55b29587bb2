package schedule

import (
	"time"

	"github.com/trezcool/ratiba/core"
)

type Style string

const (
	StyleShared    Style = "shared"
	StylePersonal  Style = "personal"
	StyleCompleted Style = "completed"
)

// StyleOf classifies a schedule for calendar rendering; completion overrides sharing.
func StyleOf(s Schedule) Style {
	switch {
	case s.CheckedAt != nil || s.Done:
		return StyleCompleted
	case s.Shared:
		return StyleShared
	default:
		return StylePersonal
	}
}

type (
	Entry struct {
		ID         int    `json:"id"`
		Title      string `json:"title"`
		ShortTitle string `json:"short_title"`
		Style      Style  `json:"style"`
	}

	// Day is a calendar cell; cells outside the month are blank (Day == 0).
	Day struct {
		Day     int     `json:"day"`
		InMonth bool    `json:"in_month"`
		Entries []Entry `json:"entries"`
	}

	Week [7]Day // Sunday first

	YearMonth struct {
		Year  int        `json:"year"`
		Month time.Month `json:"month"`
	}

	Month struct {
		YearMonth
		Weeks []Week    `json:"weeks"`
		Prev  YearMonth `json:"prev"`
		Next  YearMonth `json:"next"`
	}
)

func (ym YearMonth) first() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) add(months int) YearMonth {
	t := ym.first().AddDate(0, months, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ProjectMonth lays `events` out on a Sunday-first grid of the given month.
// Events keep their input order within a day; events outside the month are ignored.
func ProjectMonth(events []Schedule, year int, month time.Month) Month {
	ym := YearMonth{Year: year, Month: month}.add(0) // normalizes out-of-range months
	first := ym.first()
	offset := int(first.Weekday())
	daysIn := first.AddDate(0, 1, -1).Day()

	byDay := make(map[int][]Entry, daysIn)
	for _, s := range events {
		if s.Date.Year() != ym.Year || s.Date.Month() != ym.Month {
			continue
		}
		byDay[s.Date.Day()] = append(byDay[s.Date.Day()], Entry{
			ID:         s.ID,
			Title:      s.Title,
			ShortTitle: s.ShortTitle(),
			Style:      StyleOf(s),
		})
	}

	nWeeks := (offset + daysIn + 6) / 7
	weeks := make([]Week, nWeeks)
	for cell := 0; cell < nWeeks*7; cell++ {
		day := cell - offset + 1
		if day < 1 || day > daysIn {
			weeks[cell/7][cell%7] = Day{Entries: []Entry{}}
			continue
		}
		entries := byDay[day]
		if entries == nil {
			entries = []Entry{}
		}
		weeks[cell/7][cell%7] = Day{Day: day, InMonth: true, Entries: entries}
	}

	return Month{
		YearMonth: ym,
		Weeks:     weeks,
		Prev:      ym.add(-1),
		Next:      ym.add(1),
	}
}

// DateOf returns the date of an in-month cell.
func (m Month) DateOf(d Day) (core.Date, bool) {
	if !d.InMonth {
		return core.Date{}, false
	}
	return core.NewDate(m.Year, m.Month, d.Day), true
}
