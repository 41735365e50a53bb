package bridge

// StatusOK is the only status the health report ever carries; a bridge
// that can answer is serving.
const StatusOK = "ok"

// Health is a point-in-time liveness report.
type Health struct {
	Status   string `json:"status"`
	InFlight int    `json:"in_flight"`
	Capacity int    `json:"capacity"`
	Program  string `json:"program"`
	Version  string `json:"version,omitempty"`
}

// Health reports liveness and current load. It never starts a process.
func (c *Coordinator) Health() Health {
	inFlight, capacity := c.Stats()
	return Health{
		Status:   StatusOK,
		InFlight: inFlight,
		Capacity: capacity,
		Program:  c.inv.Program(),
		Version:  c.opts.Version,
	}
}
