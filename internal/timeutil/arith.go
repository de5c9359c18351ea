package timeutil

import "fmt"

// Arithmetic steps one unit at a time and carries into the next coarser
// field on overflow or underflow. Days-in-month is looked up from the
// current year at the moment of rollover so leap Februaries are honoured.

// AddYear adds n years.
func (d *DateTime) AddYear(n int) {
	d.year += n
}

// AddMonth adds n months, carrying into the year. The day is not clamped,
// so AddMonth(n) followed by AddMonth(-n) restores the original value.
func (d *DateTime) AddMonth(n int) {
	for ; n > 0; n-- {
		d.month++
		if d.month > 12 {
			d.month = 1
			d.AddYear(1)
		}
	}
	for ; n < 0; n++ {
		d.month--
		if d.month < 1 {
			d.month = 12
			d.AddYear(-1)
		}
	}
}

// AddDay adds n days, carrying into the month.
func (d *DateTime) AddDay(n int) {
	for ; n > 0; n-- {
		d.day++
		if d.day > DaysInMonth(d.month, d.year) {
			d.day = 1
			d.AddMonth(1)
		}
	}
	for ; n < 0; n++ {
		d.day--
		if d.day < 1 {
			d.AddMonth(-1)
			d.day = DaysInMonth(d.month, d.year)
		}
	}
}

// AddHour adds n hours, carrying into the day.
func (d *DateTime) AddHour(n int) {
	for ; n > 0; n-- {
		d.hour++
		if d.hour > 23 {
			d.hour = 0
			d.AddDay(1)
		}
	}
	for ; n < 0; n++ {
		d.hour--
		if d.hour < 0 {
			d.hour = 23
			d.AddDay(-1)
		}
	}
}

// AddMinute adds n minutes, carrying into the hour.
func (d *DateTime) AddMinute(n int) {
	for ; n > 0; n-- {
		d.minute++
		if d.minute > 59 {
			d.minute = 0
			d.AddHour(1)
		}
	}
	for ; n < 0; n++ {
		d.minute--
		if d.minute < 0 {
			d.minute = 59
			d.AddHour(-1)
		}
	}
}

// AddSecond adds n seconds, carrying into the minute.
func (d *DateTime) AddSecond(n int) {
	for ; n > 0; n-- {
		d.second++
		if d.second > 59 {
			d.second = 0
			d.AddMinute(1)
		}
	}
	for ; n < 0; n++ {
		d.second--
		if d.second < 0 {
			d.second = 59
			d.AddMinute(-1)
		}
	}
}

// AddHundredth adds n hundredths of a second, carrying into the second.
func (d *DateTime) AddHundredth(n int) {
	for ; n > 0; n-- {
		d.hundredth++
		if d.hundredth > 99 {
			d.hundredth = 0
			d.AddSecond(1)
		}
	}
	for ; n < 0; n++ {
		d.hundredth--
		if d.hundredth < 0 {
			d.hundredth = 99
			d.AddSecond(-1)
		}
	}
}

// AddInterval advances d by mult units of base. Irregular and unknown
// intervals have no fixed step and return an error.
func (d *DateTime) AddInterval(base IntervalBase, mult int) error {
	switch base {
	case IntervalYear:
		d.AddYear(mult)
	case IntervalMonth:
		d.AddMonth(mult)
	case IntervalWeek:
		d.AddDay(7 * mult)
	case IntervalDay:
		d.AddDay(mult)
	case IntervalHour:
		d.AddHour(mult)
	case IntervalMinute:
		d.AddMinute(mult)
	case IntervalSecond:
		d.AddSecond(mult)
	case IntervalHundredth:
		d.AddHundredth(mult)
	default:
		return fmt.Errorf("cannot add %s interval", base)
	}
	return nil
}
