package planner

import "github.com/nstehr/colony/model"

// Explorer tracks every tile no ant has seen yet. It starts as the whole grid
// and only ever shrinks.
type Explorer struct {
	unseen []model.Tile // row-major
}

func NewExplorer(g model.Grid) *Explorer {
	return &Explorer{unseen: g.Tiles()}
}

// Forget drops every tile for which visible returns true and reports how many
// were removed. Dropped tiles never come back, even if they later fall out of
// view.
func (e *Explorer) Forget(visible func(model.Tile) bool) int {
	kept := e.unseen[:0]
	for _, t := range e.unseen {
		if !visible(t) {
			kept = append(kept, t)
		}
	}
	removed := len(e.unseen) - len(kept)
	clear(e.unseen[len(kept):])
	e.unseen = kept
	return removed
}

// Unseen returns the remaining tiles in row-major order. The slice must not
// be modified.
func (e *Explorer) Unseen() []model.Tile { return e.unseen }

func (e *Explorer) Len() int { return len(e.unseen) }

// HillBook remembers every enemy hill ever observed. Entries are never
// removed, so a razed hill keeps drawing idle ants.
type HillBook struct {
	hills []model.Tile
	known map[model.Tile]bool
}

func NewHillBook() *HillBook {
	return &HillBook{known: make(map[model.Tile]bool)}
}

// Observe appends hills not seen before and returns how many were new.
func (b *HillBook) Observe(hills []model.Hill) int {
	added := 0
	for _, h := range hills {
		if b.known[h.Tile] {
			continue
		}
		b.known[h.Tile] = true
		b.hills = append(b.hills, h.Tile)
		added++
	}
	return added
}

// Hills returns the known hills in discovery order.
func (b *HillBook) Hills() []model.Tile { return b.hills }

func (b *HillBook) Len() int { return len(b.hills) }
