package statuses

// Room lifecycle. Transitions go forward only:
// waiting -> active -> closed.
const (
	StatusWaiting = "waiting"
	StatusActive  = "active"
	StatusClosed  = "closed"
)
