package rescue

import (
	"math"

	"sarsim/internal/domain/grid"
)

const (
	RewardStep              = -1
	RewardTaskSuccess       = 10
	RewardTaskFailure       = -10
	RewardCommunicate       = -1
	RewardCommunicateFailed = -10

	// Unknown marks a knowledge-table entry nothing has been learned about yet.
	Unknown grid.Cell = -1
	// Unreachable is the visit count of a wall; it never changes.
	Unreachable = math.MaxInt32

	NoVictim = -1
	NoAgent  = -1
)
