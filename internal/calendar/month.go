package calendar

import "time"

// Day is one cell of a month grid.
type Day struct {
	Date       string `json:"date"`
	Day        int    `json:"day"`
	InMonth    bool   `json:"inMonth"`
	Today      bool   `json:"today"`
	Selectable bool   `json:"selectable"`
	Booked     bool   `json:"booked"`
}

// Month lays out a month as Sunday-first weeks, padded with the neighbouring
// months' days so every week has seven cells.
func Month(year int, month time.Month, mask DateMask, booked map[string]bool) [][]Day {
	loc := mask.loc()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	today := mask.Today()

	var weeks [][]Day
	for cursor := start; ; {
		week := make([]Day, 0, 7)
		for i := 0; i < 7; i++ {
			key := cursor.Format(DateLayout)
			week = append(week, Day{
				Date:       key,
				Day:        cursor.Day(),
				InMonth:    cursor.Month() == month,
				Today:      cursor.Equal(today),
				Selectable: mask.Selectable(cursor),
				Booked:     booked[key],
			})
			cursor = cursor.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
		if cursor.Month() != month {
			break
		}
	}
	return weeks
}
