package state

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"
)

// CardCount is one line of a deck list.
type CardCount struct {
	Def   string
	Count int
}

// BuildDeck creates Count instances of every entry, shuffles them with the
// state's seed and puts them on the draw pile.
func (gs *GameState) BuildDeck(list []CardCount) {
	var pile []Card
	for _, entry := range list {
		for range entry.Count {
			pile = append(pile, Card{ID: uuid.NewString(), Def: entry.Def})
		}
	}
	gs.shuffle(pile)
	gs.DrawPile = pile
	gs.DiscardPile = nil
}

// Deal gives every player n cards from the draw pile, in seat order.
func (gs *GameState) Deal(n int) {
	for _, p := range gs.Players {
		for range n {
			c, ok := gs.draw()
			if !ok {
				return
			}
			p.Hand = append(p.Hand, c)
		}
	}
}

// DealAgendas gives every player one secret agenda from ids, shuffled with
// the state's seed. Players beyond the supply get none.
func (gs *GameState) DealAgendas(ids []string) {
	pool := slices.Clone(ids)
	shuffleWith(d20.NewRoller(^gs.ShuffleSeed), pool)
	for i, p := range gs.Players {
		if i >= len(pool) {
			return
		}
		p.Agenda = pool[i]
	}
}

// draw takes the top card, reshuffling the discard pile when the draw pile
// is empty. ok is false when both piles are empty.
func (gs *GameState) draw() (Card, bool) {
	if len(gs.DrawPile) == 0 {
		if len(gs.DiscardPile) == 0 {
			return Card{}, false
		}
		gs.DrawPile = gs.DiscardPile
		gs.DiscardPile = nil
		gs.shuffle(gs.DrawPile)
	}
	c := gs.DrawPile[0]
	gs.DrawPile = gs.DrawPile[1:]
	return c, true
}

// shuffle is deterministic for a given seed and reshuffle count, so a
// restored session continues with the same order.
func (gs *GameState) shuffle(pile []Card) {
	shuffleWith(d20.NewRoller(gs.ShuffleSeed+int64(gs.Reshuffles)), pile)
	gs.Reshuffles++
}

// shuffleWith is a Fisher-Yates shuffle drawing each swap from a die with
// one face per remaining position.
func shuffleWith[T any](r *d20.Roller, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		out, err := r.Dice(1, uint(i+1)).Roll()
		if err != nil {
			return
		}
		j := out.DiceRolls[0] - 1
		s[i], s[j] = s[j], s[i]
	}
}

// TitlesOf lists the titles a player holds.
func (gs *GameState) TitlesOf(player string) []string {
	var out []string
	for id, hold := range gs.Titles {
		if hold.Holder == player {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// HolderOf returns the current holder of a title.
func (gs *GameState) HolderOf(title string) (string, bool) {
	hold, ok := gs.Titles[title]
	return hold.Holder, ok
}

// Holders counts how many players hold the title, looking at every place a
// title card could be recorded as held.
func (gs *GameState) Holders(title string) int {
	n := 0
	if _, ok := gs.Titles[title]; ok {
		n++
	}
	for _, p := range gs.Players {
		for _, c := range p.Front {
			if c.Def == title {
				n++
			}
		}
	}
	return n
}
