package turn

import "github.com/vovakirdan/civcore/internal/world"

// Event is an outcome reported by Advance, in the order it happened.
type Event interface {
	turnEvent()
}

// TechnologyLearned is emitted when a player completes research.
type TechnologyLearned struct {
	Player world.PlayerID
	Tech   string
}

func (TechnologyLearned) turnEvent() {}

// TurnAdvanced is emitted last, carrying the new turn number.
type TurnAdvanced struct {
	Turn uint32
}

func (TurnAdvanced) turnEvent() {}
