// Package planner builds day-by-day study plans.
package planner

import (
	"fmt"
	"math"

	"github.com/unigenai/unigen/internal/domain"
)

// Hours is a duration in hundredths of an hour. Working in integers keeps
// the per-subject split summing exactly to the daily total.
type Hours int64

// HoursFromFloat quantizes h to the nearest hundredth of an hour.
func HoursFromFloat(h float64) Hours {
	return Hours(math.Round(h * 100))
}

// Float returns the value in hours.
func (h Hours) Float() float64 {
	return float64(h) / 100
}

// String renders at least one decimal, e.g. "2.5", "1.0", "0.25".
func (h Hours) String() string {
	sign := ""
	v := int64(h)
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v%10 == 0 {
		return fmt.Sprintf("%s%d.%d", sign, v/100, (v%100)/10)
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Weight is one subject's share weight.
type Weight struct {
	Subject domain.Subject
	Weight  float64
}

// Allocation is the daily time given to one subject.
type Allocation struct {
	Subject domain.Subject `json:"subject"`
	Hours   Hours          `json:"hours"`
}

// SubjectWeights derives weights from each subject's difficulty.
func SubjectWeights(subjects []domain.Subject) []Weight {
	weights := make([]Weight, 0, len(subjects))
	for _, s := range subjects {
		weights = append(weights, Weight{Subject: s, Weight: s.Difficulty().Weight()})
	}
	return weights
}

// Split divides total proportionally to the weights. Every subject but the
// last is rounded to a tenth of an hour; the last one takes the remainder,
// so the allocations always sum to total.
func Split(total Hours, weights []Weight) []Allocation {
	if len(weights) == 0 {
		return nil
	}
	var sum float64
	for _, w := range weights {
		sum += w.Weight
	}

	out := make([]Allocation, len(weights))
	var used Hours
	for i, w := range weights {
		if i == len(weights)-1 {
			out[i] = Allocation{Subject: w.Subject, Hours: total - used}
			break
		}
		share := 1 / float64(len(weights))
		if sum > 0 {
			share = w.Weight / sum
		}
		tenths := math.Round(float64(total) * share / 10)
		h := Hours(tenths) * 10
		if h > total-used {
			h = total - used
		}
		out[i] = Allocation{Subject: w.Subject, Hours: h}
		used += h
	}
	return out
}
