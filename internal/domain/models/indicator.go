package models

import "time"

// IndicatorPoint is the derived series value for the bar at the same index.
type IndicatorPoint struct {
	Date    time.Time
	Close   float64
	MAShort float64 // 20-bar shrinking-window mean
	MALong  float64 // 50-bar shrinking-window mean
	Volume  int64
	RSI     float64
}
