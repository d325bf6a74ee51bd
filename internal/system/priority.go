package system

// Update-phase priorities of the stock systems. Scene systems slot between
// them; lower runs first.
const (
	PriorityHistory  = -100 // snapshot previous transforms
	PriorityInput    = -50
	PriorityMovement = 0
	PriorityPortals  = 50
	PriorityCleanup  = 1000 // always last: flush deferred destruction
)
