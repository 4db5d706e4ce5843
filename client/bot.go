package client

import (
	"math/rand/v2"

	"github.com/Droledami/kubblin/game"
)

// Bot plays by itself: it readies on join, clicks a tile without a hint
// whenever it holds the turn and asks for a replay after every round.
type Bot struct {
	Presenter
	local *Local
	rng   *rand.Rand
}

func NewBot(next Presenter, rng *rand.Rand) *Bot {
	if next == nil {
		next = NopPresenter{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bot{Presenter: next, rng: rng}
}

// Attach binds the bot to the participant it plays for.
func (b *Bot) Attach(l *Local) { b.local = l }

func (b *Bot) Joined(id int, grid game.Grid) {
	b.Presenter.Joined(id, grid)
	b.local.SetReady(true)
}

func (b *Bot) Started(started bool) {
	b.Presenter.Started(started)
	b.play()
}

func (b *Bot) TurnChanged(owner int) {
	b.Presenter.TurnChanged(owner)
	b.play()
}

func (b *Bot) EndOfGame(show bool) {
	b.Presenter.EndOfGame(show)
	if show {
		b.local.Replay()
	}
}

func (b *Bot) play() {
	if b.local == nil || !b.local.MyTurn() {
		return
	}
	cells := b.local.Unexplored()
	if len(cells) == 0 {
		return
	}
	b.local.Click(cells[b.rng.IntN(len(cells))])
}
