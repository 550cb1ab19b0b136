package recognition

// Cooldown suppresses repeated recognition of the same physical plate
// crossing. After an accepted recognition the live feed ignores results for a
// fixed number of processed frames; an explicit on-demand capture bypasses it.
//
// The counter is touched only by the frame loop, so it needs no
// synchronization.
type Cooldown struct {
	frames    int
	remaining int
}

func NewCooldown(frames int) *Cooldown {
	return &Cooldown{frames: frames}
}

// Tick consumes one processed frame.
func (c *Cooldown) Tick() {
	if c.remaining > 0 {
		c.remaining--
	}
}

// Ready reports whether the live feed may accept a recognition.
func (c *Cooldown) Ready() bool {
	return c.remaining == 0
}

// Arm starts the suppression window after an accepted recognition.
func (c *Cooldown) Arm() {
	c.remaining = c.frames
}
