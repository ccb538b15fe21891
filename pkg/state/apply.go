package state

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var ErrTitleHeld = errors.New("title is held by another player")

// Apply commits actions all-or-nothing: they are applied in order to a
// clone, and the clone replaces the state only when every action succeeded.
// Player pointers obtained before Apply are stale afterwards.
func (gs *GameState) Apply(actions ...Action) error {
	next := gs.Clone()
	for i, a := range actions {
		if err := next.apply(a); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Kind, err)
		}
	}
	next.checkWin()
	next.UpdatedAt = time.Now()
	*gs = *next
	return nil
}

// SkipReason reports why an action would change nothing, or "" when it
// takes effect.
func (gs *GameState) SkipReason(a Action) string {
	if !a.Guard.Holds(gs) {
		return "condition not met"
	}
	if a.Kind == ActGainTrust {
		if p, err := gs.Player(a.Target); err == nil && p.TrustBlocked() {
			return "trust blocked"
		}
	}
	return ""
}

func (gs *GameState) apply(a Action) error {
	if gs.SkipReason(a) != "" {
		return nil
	}
	if a.Amount < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrInvalidAction, a.Amount)
	}

	switch a.Kind {
	case ActGainFood:
		p, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		p.Food += a.Amount

	case ActPayFood:
		p, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		if p.Food < a.Amount {
			return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFood, p.ID, p.Food, a.Amount)
		}
		p.Food -= a.Amount

	case ActTransferFood:
		from, err := gs.Player(a.Source)
		if err != nil {
			return err
		}
		to, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		if from.Food < a.Amount {
			return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFood, from.ID, from.Food, a.Amount)
		}
		from.Food -= a.Amount
		to.Food += a.Amount

	case ActGainTrust:
		p, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		if a.Owner == "" {
			return fmt.Errorf("%w: trust without owner", ErrInvalidAction)
		}
		p.Trust[a.Owner] += a.Amount

	case ActLoseTrust:
		p, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		p.Trust[a.Owner] = max(0, p.Trust[a.Owner]-a.Amount)

	case ActDrawCards:
		p, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		for range a.Amount {
			c, ok := gs.draw()
			if !ok {
				break
			}
			p.Hand = append(p.Hand, c)
		}

	case ActPlayCard:
		c, err := gs.take(ZoneHand, a.Source, a.Card, "")
		if err != nil {
			return err
		}
		gs.Table = append(gs.Table, c)

	case ActMoveCard:
		to, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		c, err := gs.take(a.From, a.Source, a.Card, a.Title)
		if err != nil {
			return err
		}
		to.Hand = append(to.Hand, c)

	case ActDiscard:
		c, err := gs.take(a.From, a.Source, a.Card, a.Title)
		if err != nil {
			return err
		}
		gs.DiscardPile = append(gs.DiscardPile, c)

	case ActPlaceInFront:
		host, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		c, err := gs.take(a.From, a.Source, a.Card, "")
		if err != nil {
			return err
		}
		if a.Binding != nil {
			b := *a.Binding
			c.Binding = &b
		}
		c.Caster = a.Source
		c.Expires = a.Expires
		host.Front = append(host.Front, c)
		if a.Modifier != nil {
			m := a.Modifier.clone()
			m.Source = c.ID
			host.Modifiers = append(host.Modifiers, m)
		}

	case ActClaimTitle:
		holder, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		if a.Title == "" {
			return fmt.Errorf("%w: claim without title", ErrInvalidAction)
		}
		if prior, ok := gs.Titles[a.Title]; ok {
			return fmt.Errorf("%w: %s holds %s", ErrTitleHeld, prior.Holder, a.Title)
		}
		c, err := gs.take(a.From, a.Source, a.Card, "")
		if err != nil {
			return err
		}
		gs.Titles[a.Title] = TitleHold{Holder: holder.ID, Card: c}
		if a.Modifier != nil {
			m := a.Modifier.clone()
			m.Source = c.ID
			holder.Modifiers = append(holder.Modifiers, m)
		}

	case ActMove:
		p, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		if len(a.Path) > 0 {
			p.Position = a.Path[len(a.Path)-1]
		}
		gs.Steps = 0
		gs.Phase = PhasePlay

	case ActRoll:
		if _, err := gs.Player(a.Target); err != nil {
			return err
		}
		gs.Steps = a.Amount
		gs.Phase = PhaseMove

	case ActVisit:
		if a.Cause == "" {
			return fmt.Errorf("%w: visit without cell", ErrInvalidAction)
		}
		gs.Visited[a.Cause] = true
		if a.Owner != "" {
			p, err := gs.Player(a.Target)
			if err != nil {
				return err
			}
			if p.Visits == nil {
				p.Visits = make(map[string]int)
			}
			p.Visits[a.Owner]++
		}

	case ActReveal:
		p, err := gs.Player(a.Target)
		if err != nil {
			return err
		}
		if a.Card == "" || p.Agenda != a.Card {
			return fmt.Errorf("%w: %s does not hold agenda %q", ErrInvalidAction, p.ID, a.Card)
		}
		p.Agenda = ""
		if a.Modifier == nil {
			gs.AgendaBox = append(gs.AgendaBox, a.Card)
			break
		}
		p.Revealed = append(p.Revealed, a.Card)
		m := a.Modifier.clone()
		m.Source = a.Card
		p.Modifiers = append(p.Modifiers, m)

	case ActFight:
		if _, err := gs.Player(a.Target); err != nil {
			return err
		}
		gs.Fought = true

	case ActEndTurn:
		next := slices.IndexFunc(gs.Players, func(p *Player) bool { return p.ID == a.Target })
		if next < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownPlayer, a.Target)
		}
		gs.Active = next
		gs.Turn++
		gs.Phase = PhaseRoll
		gs.Steps = 0
		gs.Fought = false
		clear(gs.Visited)

	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, a.Kind)
	}
	return nil
}

// take removes a card from a zone. Cards leaving play lose their binding
// and the modifiers they granted.
func (gs *GameState) take(zone Zone, owner, cardID, title string) (Card, error) {
	notFound := fmt.Errorf("%w: %s in %s", ErrCardNotFound, cardID, zone)

	switch zone {
	case ZoneHand, ZoneFront:
		p, err := gs.Player(owner)
		if err != nil {
			return Card{}, err
		}
		pile := &p.Hand
		if zone == ZoneFront {
			pile = &p.Front
		}
		i := indexOf(*pile, cardID)
		if i < 0 {
			return Card{}, notFound
		}
		c := (*pile)[i]
		*pile = slices.Delete(*pile, i, i+1)
		if zone == ZoneFront {
			p.dropModifiers(c.ID)
			c = c.leavePlay()
		}
		return c, nil

	case ZoneTitle:
		for id, hold := range gs.Titles {
			if (title != "" && id != title) || (cardID != "" && hold.Card.ID != cardID) {
				continue
			}
			delete(gs.Titles, id)
			if p, err := gs.Player(hold.Holder); err == nil {
				p.dropModifiers(hold.Card.ID)
			}
			return hold.Card.leavePlay(), nil
		}
		return Card{}, notFound

	case ZoneTable, ZoneDiscard, ZoneDraw:
		pile := &gs.Table
		switch zone {
		case ZoneDiscard:
			pile = &gs.DiscardPile
		case ZoneDraw:
			pile = &gs.DrawPile
		}
		i := indexOf(*pile, cardID)
		if i < 0 {
			return Card{}, notFound
		}
		c := (*pile)[i]
		*pile = slices.Delete(*pile, i, i+1)
		return c, nil
	}
	return Card{}, fmt.Errorf("%w: unknown zone %q", ErrInvalidAction, zone)
}

// checkWin ends the game once someone's trust with any owner reaches the
// win threshold. The active player is checked first.
func (gs *GameState) checkWin() {
	if gs.Phase == PhaseOver || gs.WinTrust <= 0 || len(gs.Players) == 0 {
		return
	}
	for i := range gs.Players {
		p := gs.Players[(gs.Active+i)%len(gs.Players)]
		for _, v := range p.Trust {
			if v >= gs.WinTrust {
				gs.Winner = p.ID
				gs.Phase = PhaseOver
				return
			}
		}
	}
}

func (c Card) leavePlay() Card {
	c.Binding = nil
	c.Caster = ""
	c.Expires = 0
	return c
}

func (p *Player) dropModifiers(source string) {
	p.Modifiers = slices.DeleteFunc(p.Modifiers, func(m Modifier) bool { return m.Source == source })
}
