// Package main is an operator CLI for the NYMEX CL contract calendar.
//
// Usage:
//
//	calendar contracts [-year N] [-today YYYY-MM-DD] [-format json|yaml]
//	calendar grid [-year N] [-month M] [-format json|yaml]
//	calendar holidays [-year N] [-format json|yaml]
//	calendar draft-holidays -year N
//
// All commands accept -holidays to extend the built-in holiday table with a YAML file.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/crudeops/wtidesk/internal/modules/contract_calendar"
	"github.com/crudeops/wtidesk/pkg/logger"
	"gopkg.in/yaml.v3"
)

var errUsage = errors.New("usage: calendar <contracts|grid|holidays|draft-holidays> [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// options are the flags shared by every subcommand
type options struct {
	year     int
	month    int
	today    string
	format   string
	holidays string
}

func run(args []string, stdout, stderr io.Writer, now time.Time) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd := args[0]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.IntVar(&opts.year, "year", now.Year(), "calendar year")
	fs.StringVar(&opts.format, "format", "json", "output format: json or yaml")
	fs.StringVar(&opts.holidays, "holidays", os.Getenv("HOLIDAYS_FILE"), "YAML holiday extension file")
	switch cmd {
	case "contracts":
		fs.StringVar(&opts.today, "today", now.Format(contract_calendar.DateLayout), "date statuses are relative to")
	case "grid":
		fs.IntVar(&opts.month, "month", 0, "month 1-12; omit for the whole year")
	case "holidays", "draft-holidays":
	default:
		return fmt.Errorf("unknown command %q\n%w", cmd, errUsage)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	if cmd == "draft-holidays" {
		return draftHolidays(stdout, opts.year)
	}

	table := contract_calendar.DefaultHolidayTable()
	if opts.holidays != "" {
		extra, err := contract_calendar.LoadHolidayFile(opts.holidays)
		if err != nil {
			return err
		}
		table = table.Merge(extra)
	}

	log := logger.New(logger.Config{Level: "warn", Out: stderr})
	service := contract_calendar.NewService(table, log)

	var out interface{}
	switch cmd {
	case "contracts":
		today, err := time.Parse(contract_calendar.DateLayout, opts.today)
		if err != nil {
			return fmt.Errorf("invalid -today %q: %w", opts.today, err)
		}
		result, err := service.Contracts(opts.year, today)
		if err != nil {
			return err
		}
		out = result

	case "grid":
		var (
			months []contract_calendar.MonthGrid
			err    error
		)
		if opts.month == 0 {
			months, err = service.YearGrid(opts.year)
		} else {
			var grid contract_calendar.MonthGrid
			grid, err = service.MonthGrid(opts.year, time.Month(opts.month))
			months = []contract_calendar.MonthGrid{grid}
		}
		if err != nil {
			return err
		}
		out = map[string]interface{}{
			"year":                  opts.year,
			"months":                months,
			"missing_holiday_years": service.MissingHolidayYearsAround(opts.year),
		}

	case "holidays":
		holidays, known := service.Holidays(opts.year)
		out = map[string]interface{}{
			"year":     opts.year,
			"known":    known,
			"holidays": holidays,
		}
	}

	return encode(stdout, opts.format, out)
}

// draftHolidays prints rule-based holidays in the extension file format.
// The output must be checked against the exchange's published schedule.
func draftHolidays(w io.Writer, year int) error {
	if err := contract_calendar.ValidateCalendarYear(year); err != nil {
		return err
	}
	data, err := contract_calendar.MarshalHolidayYAML(contract_calendar.DraftExchangeHolidays(year))
	if err != nil {
		return fmt.Errorf("failed to render draft: %w", err)
	}
	fmt.Fprintf(w, "# Draft NYMEX holidays for %d. Verify against the published exchange schedule.\n", year)
	_, err = w.Write(data)
	return err
}

// encode writes v as indented JSON, or as YAML keyed by the JSON field names
func encode(w io.Writer, format string, v interface{}) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}
