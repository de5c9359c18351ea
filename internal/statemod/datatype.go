package statemod

import (
	"path/filepath"
	"strings"
)

// dataTypes maps StateMod file extensions to the data type used in the
// identifiers of series read from them.
var dataTypes = map[string]string{
	".rih": "StreamflowHistorical",
	".xbm": "Baseflow",
	".ddh": "DiversionHistorical",
	".ddm": "Demand",
	".ddc": "ConsumptiveWaterRequirement",
	".iwr": "IrrigationWaterRequirement",
	".eom": "ReservoirEOM",
	".tar": "ReservoirTarget",
	".weh": "WellPumpingHistorical",
	".ifm": "InstreamDemand",
}

// DataTypeForFile returns the conventional data type for a StateMod file
// name, or "" when the extension is not recognized.
func DataTypeForFile(name string) string {
	return dataTypes[strings.ToLower(filepath.Ext(name))]
}

// SplitLines splits file text into lines, accepting "\n" and "\r\n" endings.
// A trailing newline does not produce a final empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// FindHeader returns the 1-based line number and text of the header: the
// first line that is neither a comment nor blank.
func FindHeader(lines []string) (int, string, bool) {
	for i, line := range lines {
		if !isComment(line) {
			return i + 1, line, true
		}
	}
	return 0, "", false
}
