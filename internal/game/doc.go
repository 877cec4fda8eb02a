// Package game implements the blackjack round state machine.
//
// An Engine deals from a CardSource (normally a *deck.Shoe) and walks a round
// through its phases:
//
//	dealing -> player turn -> dealer turn -> resolved
//
// Naturals, a player bust, and a player hitting to exactly 21 short-circuit
// straight to resolved without dealer play.
//
// # Basic Usage
//
//	shoe := deck.NewShoe(randutil.New(42), 6, 0.5)
//	e := game.NewEngine(shoe)
//	if err := e.StartRound(); err != nil {
//	    return err
//	}
//	for e.Phase() == game.PhasePlayerTurn {
//	    if err := e.Apply(game.Stand); err != nil {
//	        return err
//	    }
//	}
//	if e.Phase() == game.PhaseDealerTurn {
//	    if err := e.RunDealerTurn(); err != nil {
//	        return err
//	    }
//	}
//	reward := e.Outcome().Reward()
//
// The engine is not safe for concurrent use; one goroutine owns a round.
package game
