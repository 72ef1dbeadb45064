package watch

import (
	"github.com/gdamore/tcell/v2"

	"github.com/fragcore/arena/internal/world"
)

// Command maps a key press to the session message it requests.
func Command(ev *tcell.EventKey) (world.Message, bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return world.QuitGame{}, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return world.QuitGame{}, true
		case 'n':
			return world.StartNewGame{}, true
		case 's':
			return world.SaveGame{}, true
		case 'l':
			return world.LoadGame{}, true
		}
	}
	return nil, false
}
