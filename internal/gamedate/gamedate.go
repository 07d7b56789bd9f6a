// Package gamedate models the in-game calendar: four 28-day seasons
// per year, starting at Spring 1, Year 1.
package gamedate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Season int

const (
	Spring Season = iota
	Summer
	Fall
	Winter
)

const (
	DaysPerSeason = 28
	DaysPerYear   = 4 * DaysPerSeason
)

var seasonNames = [...]string{"spring", "summer", "fall", "winter"}

func (s Season) String() string {
	if s < Spring || s > Winter {
		return "unknown"
	}
	return seasonNames[s]
}

// Title returns the capitalized season name used in display labels.
func (s Season) Title() string {
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseSeason accepts season names case-insensitively.
func ParseSeason(name string) (Season, error) {
	for i, n := range seasonNames {
		if strings.EqualFold(name, n) {
			return Season(i), nil
		}
	}
	return Spring, fmt.Errorf("unknown season %q", name)
}

// Date is an in-game calendar date.
type Date struct {
	Year   int    `json:"year"`
	Season Season `json:"-"`
	Day    int    `json:"day"`
}

// dateJSON keeps the season human-readable on disk ("fall", not 2).
type dateJSON struct {
	Year   int    `json:"year"`
	Season string `json:"season"`
	Day    int    `json:"day"`
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"year":%d,"season":%q,"day":%d}`, d.Year, d.Season.String(), d.Day)), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw dateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	season, err := ParseSeason(raw.Season)
	if err != nil {
		return err
	}
	d.Year = raw.Year
	d.Season = season
	d.Day = raw.Day
	return nil
}

// Valid reports whether the date is a real calendar position.
func (d Date) Valid() bool {
	return d.Year >= 1 && d.Season >= Spring && d.Season <= Winter && d.Day >= 1 && d.Day <= DaysPerSeason
}

// AbsoluteDay is a monotonically increasing day index, 1 at Spring 1 Year 1.
func (d Date) AbsoluteDay() int {
	return (d.Year-1)*DaysPerYear + int(d.Season)*DaysPerSeason + d.Day
}

// Week is the 1-based week within the season (days 1-7 are week 1).
func (d Date) Week() int {
	return (d.Day-1)/7 + 1
}

// Before orders dates by year, season, day.
func (d Date) Before(other Date) bool {
	return d.AbsoluteDay() < other.AbsoluteDay()
}

// DaysBetween is the signed number of in-game days from a to b.
func DaysBetween(a, b Date) int {
	return b.AbsoluteDay() - a.AbsoluteDay()
}

// String renders the date the way the game shows it: "Fall 6, Year 2".
func (d Date) String() string {
	return fmt.Sprintf("%s %d, Year %d", d.Season.Title(), d.Day, d.Year)
}

var datePattern = regexp.MustCompile(`^(\w+)\s+(\d+),\s+Year\s+(\d+)$`)

// Parse reads a display-format date like "Fall 6, Year 2".
func Parse(s string) (Date, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Date{}, fmt.Errorf("malformed game date %q", s)
	}
	season, err := ParseSeason(m[1])
	if err != nil {
		return Date{}, err
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	d := Date{Year: year, Season: season, Day: day}
	if !d.Valid() {
		return Date{}, fmt.Errorf("game date %q out of range", s)
	}
	return d, nil
}
