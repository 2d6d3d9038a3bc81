package tablebase

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mwingate/chesscore/internal/board"
)

// SyzygyProber is the external-collaborator probe interface spec.md names
// for endgame tablebases: it reports what local Syzygy files are present
// and at what piece count, for the search to consult at the root of
// low-material positions. Actually decoding .rtbw/.rtbz files requires a
// format reader this corpus doesn't carry (see DESIGN.md); Probe/ProbeRoot
// report "not found" until one is wired in, so the engine always falls
// back to its own search in their absence rather than guessing.
type SyzygyProber struct {
	path      string
	maxPieces int
	available bool
	mu        sync.RWMutex
}

// NewSyzygyProber creates a new Syzygy prober rooted at path.
func NewSyzygyProber(path string) *SyzygyProber {
	sp := &SyzygyProber{path: path}
	sp.refresh()
	return sp
}

// refresh scans path for the material combinations it holds files for and
// updates maxPieces accordingly.
func (sp *SyzygyProber) refresh() {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if _, err := os.Stat(sp.path); os.IsNotExist(err) {
		sp.available = false
		sp.maxPieces = 0
		return
	}

	entries, err := os.ReadDir(sp.path)
	if err != nil {
		sp.available = false
		sp.maxPieces = 0
		return
	}

	maxPieces := 0
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".rtbw") {
			continue
		}
		material := strings.TrimSuffix(name, ".rtbw")
		if n := materialPieceCount(material); n > maxPieces {
			maxPieces = n
		}
	}

	sp.maxPieces = maxPieces
	sp.available = maxPieces > 0
	if sp.available {
		log.Printf("[Syzygy] Found local tablebases at %s (max %d pieces)", sp.path, sp.maxPieces)
	}
}

// SetPath updates the tablebase path and rescans it.
func (sp *SyzygyProber) SetPath(path string) {
	sp.path = path
	sp.refresh()
}

// Probe always reports a miss: see the type doc for why. It still checks
// whether a matching file pair exists, purely to distinguish "this
// material combination isn't stocked" from "stocked but undecodable" in
// the debug log.
func (sp *SyzygyProber) Probe(pos *board.Position) ProbeResult {
	material := positionToMaterial(pos)
	if sp.checkLocalFile(material) {
		log.Printf("[Syzygy] %s on disk but no decoder wired in, skipping probe", material)
	}
	return ProbeResult{Found: false}
}

// ProbeRoot always reports a miss: see the type doc for why.
func (sp *SyzygyProber) ProbeRoot(pos *board.Position) RootResult {
	return RootResult{Found: false}
}

// MaxPieces returns the largest piece count among the local files found.
func (sp *SyzygyProber) MaxPieces() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.maxPieces
}

// Available reports whether any local tablebase files were found.
func (sp *SyzygyProber) Available() bool {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.available
}

// Path returns the current tablebase directory.
func (sp *SyzygyProber) Path() string {
	return sp.path
}

// materialPieceCount counts the pieces named in a "KQPvKR"-style material
// key, kings included.
func materialPieceCount(material string) int {
	n := 0
	for _, c := range material {
		switch c {
		case 'K', 'Q', 'R', 'B', 'N', 'P':
			n++
		}
	}
	return n
}

// positionToMaterial converts a position to a material key like "KQvKR",
// used to match a position against the tablebase file naming convention.
func positionToMaterial(pos *board.Position) string {
	var white, black strings.Builder

	for pt := board.Queen; pt >= board.Pawn; pt-- {
		count := (pos.Pieces[board.White][pt]).PopCount()
		for i := 0; i < count; i++ {
			white.WriteByte(pieceChar(pt))
		}
	}
	for pt := board.Queen; pt >= board.Pawn; pt-- {
		count := (pos.Pieces[board.Black][pt]).PopCount()
		for i := 0; i < count; i++ {
			black.WriteByte(pieceChar(pt))
		}
	}

	return "K" + white.String() + "vK" + black.String()
}

func pieceChar(pt board.PieceType) byte {
	switch pt {
	case board.Queen:
		return 'Q'
	case board.Rook:
		return 'R'
	case board.Bishop:
		return 'B'
	case board.Knight:
		return 'N'
	case board.Pawn:
		return 'P'
	default:
		return '?'
	}
}

// checkLocalFile checks if a tablebase file pair exists locally for the
// given material key.
func (sp *SyzygyProber) checkLocalFile(material string) bool {
	wdlPath := filepath.Join(sp.path, material+".rtbw")
	dtzPath := filepath.Join(sp.path, material+".rtbz")

	_, wdlErr := os.Stat(wdlPath)
	_, dtzErr := os.Stat(dtzPath)

	return wdlErr == nil && dtzErr == nil
}
