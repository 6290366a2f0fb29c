package analytics

import (
	"math"
	"slices"

	"rosterkit/core"
)

// Band is a CGPA degree classification.
type Band string

const (
	BandFirst       Band = "first_class"
	BandSecondUpper Band = "second_class_upper"
	BandSecondLower Band = "second_class_lower"
	BandThird       Band = "third_class"
	BandPass        Band = "pass"
	BandFail        Band = "fail"
)

type bandRule struct {
	band  Band
	label string
	min   float64
}

// Ordered from the highest threshold down.
var bandRules = []bandRule{
	{BandFirst, "First Class", 4.50},
	{BandSecondUpper, "Second Class Upper", 3.50},
	{BandSecondLower, "Second Class Lower", 2.40},
	{BandThird, "Third Class", 1.50},
	{BandPass, "Pass", 1.00},
	{BandFail, "Fail", core.MinScore},
}

// Classify maps a score onto its band.
func Classify(score float64) Band {
	for _, r := range bandRules {
		if score >= r.min {
			return r.band
		}
	}
	return BandFail
}

// BandCount is the number of records falling in one band.
type BandCount struct {
	Band  Band    `json:"band"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Count int     `json:"count"`
}

// Report describes the score distribution of a roster snapshot.
type Report struct {
	Count  int         `json:"count"`
	Mean   float64     `json:"mean"`
	Median float64     `json:"median"`
	StdDev float64     `json:"stddev"`
	Min    float64     `json:"min"`
	Max    float64     `json:"max"`
	Bands  []BandCount `json:"bands"`
}

// BuildReport computes the report for records. Every band is listed, empty
// ones with a zero count. StdDev is the population deviation.
func BuildReport(records []core.Record) Report {
	rep := Report{Count: len(records), Bands: make([]BandCount, len(bandRules))}
	for i, r := range bandRules {
		rep.Bands[i] = BandCount{Band: r.band, Label: r.label, Min: r.min}
	}
	if len(records) == 0 {
		return rep
	}
	scores := make([]float64, len(records))
	var sum float64
	for i, r := range records {
		scores[i] = r.Score()
		sum += scores[i]
		band := Classify(scores[i])
		for j := range rep.Bands {
			if rep.Bands[j].Band == band {
				rep.Bands[j].Count++
				break
			}
		}
	}
	slices.Sort(scores)
	n := float64(len(scores))
	rep.Mean = sum / n
	rep.Min = scores[0]
	rep.Max = scores[len(scores)-1]
	if mid := len(scores) / 2; len(scores)%2 == 1 {
		rep.Median = scores[mid]
	} else {
		rep.Median = (scores[mid-1] + scores[mid]) / 2
	}
	var sq float64
	for _, s := range scores {
		d := s - rep.Mean
		sq += d * d
	}
	rep.StdDev = math.Sqrt(sq / n)
	return rep
}
