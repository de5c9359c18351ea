// Package domain turns raw StateMod files into published series records.
//
// # Data Source
//
// StateMod files are produced by the Colorado Decision Support Systems
// surface-water model and distributed as plain-text monthly time series,
// one file per data type. Files arrive either as Kafka messages (key = file
// name, value = file text) or from an FTP directory poll. Each file may hold
// one station or many.
//
// # StateMod File Conventions
//
// Comments:
//
//	Lines starting with "#" are ignored. The first other line is the header.
//
// Header:
//
//	"    1/1950  -     12/2010 ACFT  CYR"
//	start month/year, end month/year, units, year type.
//	Some writers use a 3-column month ("  1/1950  -   12/2010 CFS") and some
//	separate fields with spaces only ("  1 2010  12 2010 CFS  WYR").
//
// Year types:
//
//	CYR (or blank)  calendar year: values run Jan..Dec of the line year.
//	WYR             water year:    values run Oct(year-1)..Sep(year).
//	IYR             irrigation:    values run Nov(year-1)..Oct(year).
//
// Monthly data lines (fixed columns):
//
//	year(I5) station(A12) value1..value12(F8) [annual total, ignored]
//	"1950 09152500     123.0   110.0 ..."
//
// Average files:
//
//	A header year of 0 marks twelve long-term monthly averages per station.
//	The year column is ignored and every value is stored in year 0.
//
// Missing values:
//
//	-999 is the sentinel. Values within 0.002 of it, and NaN, are missing and
//	published as JSON null.
//
// Daily files:
//
//	Lines over 150 characters hold up to 31 daily values. They are rejected
//	as unsupported, as are identifiers requesting any interval but Month.
//
// # Identifiers
//
// Every series is published under a time-series identifier:
//
//	Location.Source.DataType.Month~StateMod~<input name>
//
// Location is the station id. DataType comes from the data_type header, the
// configured default, or the file extension (.rih, .ddh, .eom, ...).
//
// # Headers
//
// Raw file headers refine a read: tsid (read one series), start and end
// (override the period, e.g. "1990-01"), data_type, source and input_name.
package domain
