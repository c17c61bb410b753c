package utils

import (
	"fmt"
	"math"
)

// LocationBucketPrecision is the number of decimal places kept (~1.1 km at the equator)
const LocationBucketPrecision = 2

// LocationBucket rounds a coordinate pair to a ~1 km grid cell key
func LocationBucket(lat, lng float64) string {
	return fmt.Sprintf("%.*f,%.*f",
		LocationBucketPrecision, roundTo(lat, LocationBucketPrecision),
		LocationBucketPrecision, roundTo(lng, LocationBucketPrecision))
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	r := math.Round(v*scale) / scale
	// Avoid "-0.00" and "0.00" becoming different buckets
	if r == 0 {
		return 0
	}
	return r
}
