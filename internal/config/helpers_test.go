package config

import "github.com/SmitUplenchwar2687/tsmr/internal/measurement"

func ringMeasurement(ts uint64) measurement.Measurement {
	return measurement.Measurement{TimestampMS: ts, ID: 1}
}
