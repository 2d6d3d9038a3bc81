package board

import "errors"

// ErrBadFEN is the sentinel error wrapped into every FEN/X-FEN parse
// failure, so callers (the UCI boundary in particular) can distinguish a
// rejected position from other error classes with errors.Is.
var ErrBadFEN = errors.New("bad fen")
