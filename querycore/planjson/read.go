package planjson

import "fmt"

// ReadClass is the classification spec §4.D assigns a table read.
type ReadClass int

const (
	ReadFullScan ReadClass = iota
	ReadScan
	ReadLookup
	ReadMultiLookup
)

// classifyRead implements spec §4.D's read classification: FullScan when
// every key part is unbounded, Lookup when every part is an equality point
// covering the whole primary key, Scan otherwise. It never returns
// ReadMultiLookup: a read over several literal tuples is classified like any
// other set of ranges.
func classifyRead(ranges []ReadRangeDesc, pkLen int) ReadClass {
	if len(ranges) == 0 {
		return ReadFullScan
	}
	allUnbounded := true
	allPoints := len(ranges) >= pkLen && pkLen > 0
	for _, r := range ranges {
		if !(r.LowInf && r.HighInf) {
			allUnbounded = false
		}
		if !r.Point {
			allPoints = false
		}
	}
	if allUnbounded {
		return ReadFullScan
	}
	if allPoints {
		return ReadLookup
	}
	return ReadScan
}

// readOpName maps a classification to its recognised operator name.
func readOpName(c ReadClass) string {
	switch c {
	case ReadFullScan:
		return "TableFullScan"
	case ReadLookup:
		return "TablePointLookup"
	case ReadMultiLookup:
		return "TableMultiLookup"
	default:
		return "TableRangeScan"
	}
}

// renderRange renders one key column's bound using the mathematical
// notation spec §4.D specifies: "col [a, b)", "col (a)" for points, and
// "col (-∞, +∞)" for unbounded.
func renderRange(r ReadRangeDesc) string {
	if r.Point {
		return fmt.Sprintf("%s (%s)", r.Column, r.Low)
	}
	low := r.Low
	if r.LowInf {
		low = "-∞"
	}
	high := r.High
	if r.HighInf {
		high = "+∞"
	}
	lb, rb := "(", ")"
	if r.LowIncl && !r.LowInf {
		lb = "["
	}
	if r.HighIncl && !r.HighInf {
		rb = "]"
	}
	return fmt.Sprintf("%s %s%s, %s%s", r.Column, lb, low, high, rb)
}

func renderRanges(rs []ReadRangeDesc) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, renderRange(r))
	}
	return out
}
