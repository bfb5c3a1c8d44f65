package service

import (
	"math"
	"time"
)

// ComputePrice bills whole elapsed minutes at rate, never less than minMinutes worth.
//
//	elapsed = floor((end - start) / 1m)
//	price   = round(max(minMinutes*rate, floor(rate*elapsed)))
func ComputePrice(start, end time.Time, rate float64, minMinutes int) int64 {
	elapsed := math.Floor(float64(end.Sub(start).Milliseconds()) / float64(time.Minute/time.Millisecond))
	raw := math.Floor(rate * elapsed)
	floorCharge := float64(minMinutes) * rate
	return int64(math.Round(math.Max(floorCharge, raw)))
}
