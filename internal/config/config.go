package config

import (
	"errors"
	"fmt"
	devenv "nytbestsellers/dev/env"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/store"
	"nytbestsellers/lib/configutil"
	"strconv"
	"strings"
	"time"
)

const DefaultFile = "bestsellers.json5"

var ErrMissingPeriod = errors.New("config: run period is not set")

// Duration reads "3.1s" style strings.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

type NYT struct {
	ApiKey       string   `json:"api_key" validate:"required"`
	BaseUrl      string   `json:"base_url" validate:"omitempty,url"`
	RequestDelay Duration `json:"request_delay"`
	Timeout      Duration `json:"timeout"`
}

type Amazon struct {
	// ControlURL points at a remote browser, a local one is launched when it is empty.
	ControlURL string `json:"control_url"`
	Headless   *bool  `json:"headless"`
}

func (a Amazon) IsHeadless() bool {
	return a.Headless == nil || *a.Headless
}

type Apple struct {
	Timeout         Duration `json:"timeout"`
	RequestInterval Duration `json:"request_interval"`
}

type Data struct {
	RawDir       string `json:"raw_dir" validate:"required"`
	ProcessedDir string `json:"processed_dir" validate:"required"`
	LabelsCsv    string `json:"labels_csv" validate:"required"`
}

type Config struct {
	NYT    NYT          `json:"nyt"`
	Amazon Amazon       `json:"amazon"`
	Apple  Apple        `json:"apple"`
	Data   Data         `json:"data"`
	Store  store.Config `json:"store"`
}

func resolve(paths ...*string) error {
	for _, p := range paths {
		if *p == "" {
			continue
		}
		resolved, err := devenv.ResolvePath(*p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}

// Read reads the config file with its `.local` override and expands
// `<dev_state>` paths.
func Read(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, err
	}
	err = resolve(
		&config.Data.RawDir,
		&config.Data.ProcessedDir,
		&config.Data.LabelsCsv,
		&config.Store.File,
	)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// PeriodFromEnv reads the YEAR, MONTH and DAY variables, all three must be
// set. 0 leaves month or day unset.
func PeriodFromEnv(lookup func(string) (string, bool)) (nyt.Period, error) {
	var values [3]int
	for i, name := range []string{"YEAR", "MONTH", "DAY"} {
		raw, ok := lookup(name)
		if !ok || strings.TrimSpace(raw) == "" {
			return nyt.Period{}, fmt.Errorf("%w: %s is missing", ErrMissingPeriod, name)
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nyt.Period{}, fmt.Errorf("%w: %s is not a number: %q", ErrMissingPeriod, name, raw)
		}
		values[i] = value
	}

	period := nyt.Period{Year: values[0], Month: values[1], Day: values[2]}
	err := configutil.Validate(period)
	if err != nil {
		return nyt.Period{}, fmt.Errorf("%w: %w", ErrMissingPeriod, err)
	}
	if period.Day != 0 && period.Month == 0 {
		return nyt.Period{}, fmt.Errorf("%w: DAY needs a MONTH", ErrMissingPeriod)
	}
	return period, nil
}
