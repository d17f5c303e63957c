// FilePath: device/sensor.go
package device

import "math/rand"

// Reading is one raw measurement from the sensor, before it is stamped with
// the shared-epoch timestamp.
type Reading struct {
	DistanceMM     int
	SignalStrength int
	Status         int
	Precision      int
}

// Sensor abstracts the measurement source. The wire-protocol decoding of a
// real time-of-flight frame lives behind this interface; the core only sees
// decoded readings.
type Sensor interface {
	Read() (Reading, error)
}

// SimulatedSensor produces plausible time-of-flight readings for bench runs
// and tests. Distance drifts inside a fixed band.
type SimulatedSensor struct {
	rng      *rand.Rand
	distance int
}

func NewSimulatedSensor(seed int64) *SimulatedSensor {
	return &SimulatedSensor{
		rng:      rand.New(rand.NewSource(seed)),
		distance: 1500,
	}
}

func (s *SimulatedSensor) Read() (Reading, error) {
	s.distance += s.rng.Intn(21) - 10
	if s.distance < 40 {
		s.distance = 40
	}
	if s.distance > 4000 {
		s.distance = 4000
	}
	return Reading{
		DistanceMM:     s.distance,
		SignalStrength: 60 + s.rng.Intn(40),
		Status:         0,
		Precision:      1 + s.rng.Intn(3),
	}, nil
}
