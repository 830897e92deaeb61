package scoring

// GaugeReading positions a score on the readiness gauge
type GaugeReading struct {
	Value   int      `json:"value"`
	Segment string   `json:"segment"`
	Label   string   `json:"label"`
	Stops   []int    `json:"stops"`
	Labels  []string `json:"labels"`
	Angle   float64  `json:"angle"`
}

// Stops returns the gauge segment boundaries in ascending order, e.g. [0 35 65 85 100]
func Stops() []int {
	stops := []int{0}
	for i := len(bands) - 2; i >= 0; i-- {
		stops = append(stops, bands[i].min)
	}
	return append(stops, MaxScale)
}

// Segments returns the gauge segment names from lowest to highest
func Segments() []string {
	segments := make([]string, 0, len(bands))
	for i := len(bands) - 1; i >= 0; i-- {
		segments = append(segments, bands[i].segment)
	}
	return segments
}

// Gauge places score on the gauge. The value is clamped to [0, MaxScale] and the
// needle angle runs from 0 (empty) to 180 degrees (full).
func Gauge(score int, r Resolver) GaugeReading {
	value := score
	if value < 0 {
		value = 0
	}
	if value > MaxScale {
		value = MaxScale
	}

	segments := Segments()
	labels := make([]string, len(segments))
	for i, s := range segments {
		labels[i] = r.Resolve("speedometer." + s)
	}

	b := bandFor(value)
	return GaugeReading{
		Value:   value,
		Segment: b.segment,
		Label:   r.Resolve("speedometer." + b.segment),
		Stops:   Stops(),
		Labels:  labels,
		Angle:   float64(value) * 180 / MaxScale,
	}
}
