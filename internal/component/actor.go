package component

// Player marks the entity tracked across contexts. Name is stable across
// Worlds and is how a copy in another World is recognized.
type Player struct {
	Name  string
	Speed float64 // units per second under input
}

// Sprite is the terminal glyph drawn for an entity.
type Sprite struct {
	Glyph rune
	Color string // tcell color name; empty means default
	Layer int
}
