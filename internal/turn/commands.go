package turn

import "github.com/vovakirdan/civcore/internal/world"

// Command is an intent submitted by a player for the current turn.
type Command interface {
	issuer() world.PlayerID
}

// SetResearchTarget selects the technology a player researches.
type SetResearchTarget struct {
	Player world.PlayerID
	Tech   string
}

func (c SetResearchTarget) issuer() world.PlayerID { return c.Player }

// EndTurnReady signals that a player has finished the turn.
type EndTurnReady struct {
	Player world.PlayerID
}

func (c EndTurnReady) issuer() world.PlayerID { return c.Player }
