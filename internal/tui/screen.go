// Package tui is a terminal front end for the guessing game, drawn with tcell.
package tui

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Screen wraps tcell.Screen with the handful of calls the game needs.
type Screen struct {
	screen tcell.Screen
	once   sync.Once
}

// NewScreen creates and initializes the terminal screen.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return wrapScreen(s)
}

// wrapScreen initializes s; tests pass a simulation screen.
func wrapScreen(s tcell.Screen) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	s.Clear()
	return &Screen{screen: s}, nil
}

// Close restores the terminal. It is safe to call more than once.
func (s *Screen) Close() { s.once.Do(s.screen.Fini) }

// PollEvent blocks for the next terminal event.
func (s *Screen) PollEvent() tcell.Event { return s.screen.PollEvent() }

func (s *Screen) Clear() { s.screen.Clear() }
func (s *Screen) Show()  { s.screen.Show() }
func (s *Screen) Sync()  { s.screen.Sync() }

// Size returns the terminal dimensions.
func (s *Screen) Size() (width, height int) { return s.screen.Size() }

// SetContent sets a single cell.
func (s *Screen) SetContent(x, y int, r rune, style tcell.Style) {
	s.screen.SetContent(x, y, r, nil, style)
}

// ShowCursor places the terminal cursor.
func (s *Screen) ShowCursor(x, y int) { s.screen.ShowCursor(x, y) }

// Text writes str starting at (x, y), clipped to the screen width.
// It returns the column after the last rune written.
func (s *Screen) Text(x, y int, str string, style tcell.Style) int {
	w, _ := s.Size()
	for _, r := range str {
		if x >= w {
			break
		}
		s.SetContent(x, y, r, style)
		x++
	}
	return x
}
