package timeutil

// daysPerMonth holds non-leap month lengths, indexed by month-1.
var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear applies the Gregorian rule: divisible by 4, except centuries
// that are not divisible by 400.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysInMonth returns the number of days in month (1-12) of year.
// Out-of-range months return 0.
func DaysInMonth(month, year int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return daysPerMonth[month-1]
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// AbsoluteMonth returns year*12 + month, a monotonic month counter used for
// O(1) range checks on monthly storage.
func AbsoluteMonth(year, month int) int {
	return year*12 + month
}
