package client

import (
	"log"

	"github.com/Droledami/kubblin/game"
)

// Presenter receives everything a participant would show on screen. Its
// methods run on the client's goroutine.
type Presenter interface {
	Joined(id int, grid game.Grid)
	Ready(id int, ready bool)
	ColorChanged(id int, color game.Color)
	Countdown(n int, hideReady bool)
	Started(started bool)
	TurnChanged(owner int)
	PulseTile(cell game.Cell, color game.Color)
	RevertTile(cell game.Cell)
	NotYourTurn(visible bool)
	Winner(won bool, winner int)
	EndOfGame(show bool)
	ResetReady()
	Moved(id int, pos game.Vec3)
	Stunned(stunned bool)
	Error(code, message string)
}

// NopPresenter ignores everything. Embed it to implement a subset.
type NopPresenter struct{}

func (NopPresenter) Joined(int, game.Grid) {}
func (NopPresenter) Ready(int, bool) {}
func (NopPresenter) ColorChanged(int, game.Color) {}
func (NopPresenter) Countdown(int, bool) {}
func (NopPresenter) Started(bool) {}
func (NopPresenter) TurnChanged(int) {}
func (NopPresenter) PulseTile(game.Cell, game.Color) {}
func (NopPresenter) RevertTile(game.Cell) {}
func (NopPresenter) NotYourTurn(bool) {}
func (NopPresenter) Winner(bool, int) {}
func (NopPresenter) EndOfGame(bool) {}
func (NopPresenter) ResetReady() {}
func (NopPresenter) Moved(int, game.Vec3) {}
func (NopPresenter) Stunned(bool) {}
func (NopPresenter) Error(string, string) {}

// LogPresenter writes every directive to a logger.
type LogPresenter struct {
	Log *log.Logger
}

func (p LogPresenter) Joined(id int, grid game.Grid) {
	p.Log.Printf("joined as player %d on a %dx%d grid", id+1, grid.Width, grid.Length)
}

func (p LogPresenter) Ready(id int, ready bool) {
	p.Log.Printf("player %d ready=%v", id+1, ready)
}

func (p LogPresenter) ColorChanged(id int, color game.Color) {
	p.Log.Printf("player %d color %v", id+1, color)
}

func (p LogPresenter) Countdown(n int, _ bool) {
	if n == 0 {
		p.Log.Println("GO!")
		return
	}
	p.Log.Printf("%d...", n)
}

func (p LogPresenter) Started(started bool) {
	p.Log.Printf("round started=%v", started)
}

func (p LogPresenter) TurnChanged(owner int) {
	p.Log.Printf("turn: player %d", owner)
}

func (p LogPresenter) PulseTile(cell game.Cell, color game.Color) {
	p.Log.Printf("tile %d,%d pulses %v", cell.X, cell.Z, color)
}

func (p LogPresenter) RevertTile(game.Cell) {}

func (p LogPresenter) NotYourTurn(visible bool) {
	if visible {
		p.Log.Println("not your turn")
	}
}

func (p LogPresenter) Winner(won bool, winner int) {
	if won {
		p.Log.Println("You won!")
		return
	}
	p.Log.Printf("You lost, player %d won", winner+1)
}

func (p LogPresenter) EndOfGame(show bool) {
	if show {
		p.Log.Println("round over, replay when ready")
	}
}

func (p LogPresenter) ResetReady() {}

func (p LogPresenter) Moved(int, game.Vec3) {}

func (p LogPresenter) Stunned(stunned bool) {
	if stunned {
		p.Log.Println("stunned")
	}
}

func (p LogPresenter) Error(code, message string) {
	p.Log.Printf("server error %s: %s", code, message)
}
