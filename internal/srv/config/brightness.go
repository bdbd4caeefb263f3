package config

import (
	"fmt"
	"time"
)

// Levels chosen by the automatic brightness mode
const (
	SleepBrightness   = 1
	EveningBrightness = 3
	DayBrightness     = 5
)

const minutesPerDay = 24 * 60

// AutoBrightnessParam describes the daily periods followed when the brightness is set to AUTO.
// Times are written "15:04" in local time.
type AutoBrightnessParam struct {
	DayStart       string `yaml:"day_start"`
	DayEnd         string `yaml:"day_end"`
	SleepStart     string `yaml:"sleep_start"`
	SleepDurationM int64  `yaml:"sleep_duration_m"`
}

func (p AutoBrightnessParam) Validate() error {
	for name, value := range map[string]string{"day_start": p.DayStart, "day_end": p.DayEnd, "sleep_start": p.SleepStart} {
		if _, err := minuteOfDay(value); err != nil {
			return fmt.Errorf("auto_brightness.%s: %w", name, err)
		}
	}
	if p.SleepDurationM < 0 || p.SleepDurationM >= minutesPerDay {
		return fmt.Errorf("auto_brightness.sleep_duration_m: must be between 0 and %d", minutesPerDay-1)
	}
	return nil
}

// Level returns the brightness for the time of day of now: dimmest while sleeping, brightest
// during the day, in between otherwise. The sleep period wins over the day period.
func (p AutoBrightnessParam) Level(now time.Time) int {
	minute := now.Hour()*60 + now.Minute()

	sleepStart, _ := minuteOfDay(p.SleepStart)
	if inPeriod(minute, sleepStart, int(p.SleepDurationM)) {
		return SleepBrightness
	}

	dayStart, _ := minuteOfDay(p.DayStart)
	dayEnd, _ := minuteOfDay(p.DayEnd)
	if inPeriod(minute, dayStart, (dayEnd-dayStart+minutesPerDay)%minutesPerDay) {
		return DayBrightness
	}
	return EveningBrightness
}

// inPeriod tells whether minute falls in the period of length minutes starting at start,
// wrapping over midnight.
func inPeriod(minute int, start int, length int) bool {
	return (minute-start+minutesPerDay)%minutesPerDay < length
}

func minuteOfDay(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}
