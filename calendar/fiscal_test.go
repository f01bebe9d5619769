package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-ledger/calendar"
)

func TestFiscalYearOf_Partition(t *testing.T) {
	// GIVEN: the April-March fiscal year rule
	// THEN: month >= April belongs to the calendar year,
	//       month <= March belongs to the previous one.
	cases := []struct {
		date calendar.Date
		want int
	}{
		{calendar.NewDate(2024, time.April, 1), 2024},
		{calendar.NewDate(2024, time.August, 15), 2024},
		{calendar.NewDate(2024, time.December, 31), 2024},
		{calendar.NewDate(2025, time.January, 1), 2024},
		{calendar.NewDate(2025, time.March, 31), 2024},
		{calendar.NewDate(2025, time.April, 1), 2025},
		{calendar.NewDate(2024, time.February, 29), 2023},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, calendar.FiscalYearOf(c.date), "date %s", c.date)
	}
}

func TestAccountingYear_NonAnnualUsesCalendarYear(t *testing.T) {
	jan := calendar.NewDate(2025, time.February, 10)

	assert.Equal(t, 2024, calendar.AccountingYear(jan, true))
	assert.Equal(t, 2025, calendar.AccountingYear(jan, false))
}

func TestWindows_PartitionFiscalYear(t *testing.T) {
	// The core window and spillover window together cover exactly the
	// fiscal-year period, with no overlap.
	core := calendar.CoreWindow(2024)
	spill := calendar.SpilloverWindow(2024)
	full := calendar.FiscalYearPeriod(2024)

	assert.Equal(t, full.Start, core.Start)
	assert.Equal(t, full.End, spill.End)
	assert.Equal(t, core.End.AddDays(1), spill.Start)

	assert.True(t, core.Contains(calendar.NewDate(2024, time.April, 1)))
	assert.True(t, core.Contains(calendar.NewDate(2024, time.December, 31)))
	assert.False(t, core.Contains(calendar.NewDate(2025, time.January, 1)))

	assert.True(t, spill.Contains(calendar.NewDate(2025, time.January, 1)))
	assert.True(t, spill.Contains(calendar.NewDate(2025, time.March, 31)))
	assert.False(t, spill.Contains(calendar.NewDate(2025, time.April, 1)))
}

func TestInFirstQuarter(t *testing.T) {
	assert.True(t, calendar.InFirstQuarter(calendar.NewDate(2025, time.January, 1)))
	assert.True(t, calendar.InFirstQuarter(calendar.NewDate(2025, time.March, 31)))
	assert.False(t, calendar.InFirstQuarter(calendar.NewDate(2025, time.April, 1)))
	assert.False(t, calendar.InFirstQuarter(calendar.NewDate(2025, time.December, 1)))
}

func TestPeriod_Contains(t *testing.T) {
	p := calendar.CalendarYear(2024)
	assert.True(t, p.Contains(calendar.NewDate(2024, time.January, 1)))
	assert.True(t, p.Contains(calendar.NewDate(2024, time.December, 31)))
	assert.False(t, p.Contains(calendar.NewDate(2025, time.January, 1)))
	assert.False(t, p.Contains(calendar.NewDate(2023, time.December, 31)))
}
