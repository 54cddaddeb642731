package main

import (
	"flag"
	"log"
	"os"

	"arcode/arcode"
	"arcode/memory"
)

var (
	globalPath = flag.String("global", "", "Path to the global/base code listing.")
	localPath  = flag.String("local", "", "Path to the local/user code listing.")
	ticks      = flag.Int("ticks", 1, "Number of interpreter ticks to run.")
	debug      = flag.Bool("debug", false, "Launch the interactive code browser instead of running ticks.")
	selfLog    = flag.Bool("selflog", false, "Enable the in-process self-log.")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	if *localPath == "" {
		log.Println("Usage: arshell -local <listing> [-global <listing>] [-ticks N] [-debug]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	local := readFileOrExit(*localPath)
	var global string
	if *globalPath != "" {
		global = readFileOrExit(*globalPath)
	}

	reporter := arcode.ReporterFunc(func(format string, args ...any) {
		log.Printf(format, args...)
	})

	codes := arcode.ParseListing(global, local, reporter)
	log.Printf("parsed %d code(s)", len(codes))

	store := arcode.New()
	store.EnableSelfLogging(*selfLog)
	store.ApplyCodes(codes)

	mem := memory.New()

	if *debug {
		if err := arcode.Debug(store, mem, codes); err != nil {
			log.Fatalf("debugger: %v", err)
		}
		return
	}

	for i := 0; i < *ticks; i++ {
		store.RunAllActive(mem)
	}

	log.Printf("ran %d tick(s); %d code(s) still active", *ticks, len(store.Active()))
	for _, line := range store.SelfLog() {
		log.Println(line)
	}
}

func readFileOrExit(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("couldn't read %s: %v", path, err)
	}
	return string(data)
}
