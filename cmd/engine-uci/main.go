package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/mwingate/chesscore/internal/book"
	"github.com/mwingate/chesscore/internal/engine"
	"github.com/mwingate/chesscore/internal/tablebase"
	"github.com/mwingate/chesscore/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	syzygyPath = flag.String("syzygypath", "", "directory containing Syzygy tablebase files")
	bookPath   = flag.String("book", "", "Polyglot opening book file")
	bookCache  = flag.String("bookcache", "", "directory for the parsed-book disk cache (optional)")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	eng := engine.NewEngine(*hashMB)

	path := *syzygyPath
	if path == "" {
		path = os.Getenv("SYZYGY_PATH")
	}
	if path != "" {
		prober := tablebase.NewSyzygyProber(path)
		eng.SetTablebase(tablebase.NewCachedProber(prober, 1<<16))
	}

	if *bookPath != "" {
		if *bookCache != "" {
			cache, err := book.OpenDiskCache(*bookCache)
			if err != nil {
				log.Printf("Warning: book cache unavailable, parsing directly: %v", err)
				loadBookDirect(eng, *bookPath)
			} else {
				defer cache.Close()
				b, err := cache.LoadPolyglot(*bookPath)
				if err != nil {
					log.Printf("Warning: opening book not loaded: %v", err)
				} else {
					eng.SetBook(b)
				}
			}
		} else {
			loadBookDirect(eng, *bookPath)
		}
	}

	protocol := uci.New(eng)
	protocol.Run()
}

func loadBookDirect(eng *engine.Engine, path string) {
	if err := eng.LoadBook(path); err != nil {
		log.Printf("Warning: opening book not loaded: %v", err)
	}
}
