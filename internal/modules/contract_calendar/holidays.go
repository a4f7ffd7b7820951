package contract_calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the civil-date key format used throughout the calendar
const DateLayout = "2006-01-02"

// Holiday is an exchange trading-halt date
type Holiday struct {
	Date time.Time
	Name string
}

// MarshalJSON renders the date as YYYY-MM-DD
func (h Holiday) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}{h.Date.Format(DateLayout), h.Name})
}

// HolidayTable maps civil dates to holiday names, grouped by year.
// Tables are immutable once built; Merge returns a new table.
//
// To extend the table for a new exchange year, append that year's published
// NYMEX dates to the YAML file referenced by HOLIDAYS_FILE (see LoadHolidayFile),
// or add a block to DefaultHolidayTable. Years without entries are treated as
// holiday-free.
type HolidayTable struct {
	byYear map[int]map[string]string
}

// NewHolidayTable builds a table from the given holidays
func NewHolidayTable(holidays ...Holiday) *HolidayTable {
	t := &HolidayTable{byYear: make(map[int]map[string]string)}
	for _, h := range holidays {
		t.add(h)
	}
	return t
}

func (t *HolidayTable) add(h Holiday) {
	d := Civil(h.Date)
	year := d.Year()
	if t.byYear[year] == nil {
		t.byYear[year] = make(map[string]string)
	}
	t.byYear[year][d.Format(DateLayout)] = h.Name
}

// Name returns the holiday name for a date, if listed
func (t *HolidayTable) Name(date time.Time) (string, bool) {
	if t == nil {
		return "", false
	}
	dates, ok := t.byYear[date.Year()]
	if !ok {
		return "", false
	}
	name, ok := dates[date.Format(DateLayout)]
	return name, ok
}

// HasYear reports whether any holidays are known for the year
func (t *HolidayTable) HasYear(year int) bool {
	if t == nil {
		return false
	}
	return len(t.byYear[year]) > 0
}

// Years returns the covered years in ascending order
func (t *HolidayTable) Years() []int {
	if t == nil {
		return nil
	}
	years := make([]int, 0, len(t.byYear))
	for y, dates := range t.byYear {
		if len(dates) > 0 {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// ForYear returns the year's holidays ordered by date
func (t *HolidayTable) ForYear(year int) []Holiday {
	if t == nil {
		return []Holiday{}
	}
	dates := t.byYear[year]
	holidays := make([]Holiday, 0, len(dates))
	for key, name := range dates {
		d, err := time.Parse(DateLayout, key)
		if err != nil {
			continue
		}
		holidays = append(holidays, Holiday{Date: d, Name: name})
	}
	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

// Merge returns a new table containing both tables' entries.
// Entries from other win on conflicting dates.
func (t *HolidayTable) Merge(other *HolidayTable) *HolidayTable {
	merged := NewHolidayTable()
	for _, src := range []*HolidayTable{t, other} {
		if src == nil {
			continue
		}
		for _, year := range src.Years() {
			for _, h := range src.ForYear(year) {
				merged.add(h)
			}
		}
	}
	return merged
}

// DefaultHolidayTable returns the published NYMEX trading-halt dates shipped with the binary
func DefaultHolidayTable() *HolidayTable {
	return NewHolidayTable(
		// 2025
		holiday(2025, time.January, 1, "New Year's Day"),
		holiday(2025, time.January, 20, "MLK Day"),
		holiday(2025, time.February, 17, "Presidents Day"),
		holiday(2025, time.April, 18, "Good Friday"),
		holiday(2025, time.May, 26, "Memorial Day"),
		holiday(2025, time.July, 4, "Independence Day"),
		holiday(2025, time.September, 1, "Labor Day"),
		holiday(2025, time.November, 27, "Thanksgiving"),
		holiday(2025, time.December, 25, "Christmas"),

		// 2026
		holiday(2026, time.January, 1, "New Year's Day"),
		holiday(2026, time.January, 19, "MLK Day"),
		holiday(2026, time.February, 16, "Presidents Day"),
		holiday(2026, time.April, 3, "Good Friday"),
		holiday(2026, time.May, 25, "Memorial Day"),
		holiday(2026, time.July, 3, "Independence Day"),
		holiday(2026, time.September, 7, "Labor Day"),
		holiday(2026, time.November, 26, "Thanksgiving"),
		holiday(2026, time.December, 25, "Christmas"),

		// 2027
		holiday(2027, time.January, 1, "New Year's Day"),
		holiday(2027, time.January, 18, "MLK Day"),
		holiday(2027, time.February, 15, "Presidents Day"),
		holiday(2027, time.March, 26, "Good Friday"),
		holiday(2027, time.May, 31, "Memorial Day"),
		holiday(2027, time.July, 5, "Independence Day"),
		holiday(2027, time.September, 6, "Labor Day"),
		holiday(2027, time.November, 25, "Thanksgiving"),
		holiday(2027, time.December, 24, "Christmas"),
	)
}

func holiday(year int, month time.Month, day int, name string) Holiday {
	return Holiday{Date: Date(year, month, day), Name: name}
}

// holidayFile is the on-disk YAML layout of a holiday extension file
type holidayFile struct {
	Years []holidayFileYear `yaml:"years"`
}

type holidayFileYear struct {
	Year     int               `yaml:"year"`
	Holidays []holidayFileItem `yaml:"holidays"`
}

type holidayFileItem struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// LoadHolidayFile reads a YAML holiday extension file
func LoadHolidayFile(path string) (*HolidayTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}
	return ParseHolidayYAML(data)
}

// ParseHolidayYAML parses the holiday extension format
func ParseHolidayYAML(data []byte) (*HolidayTable, error) {
	var file holidayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}

	table := NewHolidayTable()
	for _, y := range file.Years {
		for _, item := range y.Holidays {
			d, err := time.Parse(DateLayout, item.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid holiday date %q: %w", item.Date, err)
			}
			if d.Year() != y.Year {
				return nil, fmt.Errorf("holiday %s listed under year %d", item.Date, y.Year)
			}
			if item.Name == "" {
				return nil, fmt.Errorf("holiday %s has no name", item.Date)
			}
			table.add(Holiday{Date: d, Name: item.Name})
		}
	}
	return table, nil
}

// MarshalHolidayYAML renders holidays in the extension file format
func MarshalHolidayYAML(holidays []Holiday) ([]byte, error) {
	byYear := make(map[int][]holidayFileItem)
	for _, h := range holidays {
		y := h.Date.Year()
		byYear[y] = append(byYear[y], holidayFileItem{Date: h.Date.Format(DateLayout), Name: h.Name})
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	file := holidayFile{Years: make([]holidayFileYear, 0, len(years))}
	for _, y := range years {
		file.Years = append(file.Years, holidayFileYear{Year: y, Holidays: byYear[y]})
	}
	return yaml.Marshal(file)
}
