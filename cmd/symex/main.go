// cmd/symex is the engine's CLI front-end: flags are parsed by hand (no
// args prints usage), and commands dispatch through a small alias table,
// mirroring the teacher's cmd/sentra/main.go command-alias/showUsage
// pattern rather than reaching for a flag-parsing framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"symexec/internal/ast"
	"symexec/internal/explorer"
	"symexec/internal/interp"
	"symexec/internal/liveview"
	"symexec/internal/path"
	"symexec/internal/reporting"
	"symexec/internal/solver/refsolver"
	"symexec/internal/state"
	"symexec/internal/tracestore"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"r": "run",
	"e": "explore",
	"q": "query",
	"s": "serve",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("symex " + version)
	case "run":
		runCmd(args[1:], false)
	case "explore":
		runCmd(args[1:], true)
	case "query":
		queryCmd(args[1:])
	case "serve":
		serveCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "symex: unknown command %q\n\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`symex — a symbolic execution engine

Usage:
  symex run <program.json>       explore a program, print a text summary
  symex explore <program.json>   alias of run, streaming progress to stdout
  symex query <program.json>     explore and emit a JSON witness report
  symex serve <program.json>     explore while streaming live progress over WebSocket

Flags (all commands):
  -db <dsn>        persist completed-path witnesses (sqlite://, postgres://, mysql://)
  -addr <host:port> liveview bind address for "serve" (default 127.0.0.1:8765)
  -max-rounds <n>   bound the number of explorer rounds (0 = unbounded)
`)
}

func loadProgram(path string) []ast.Stmt {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: %v\n", err)
		os.Exit(1)
	}
	program, err := ast.DecodeProgram(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: %v\n", err)
		os.Exit(1)
	}
	return program
}

func newExplorer(programPath string, maxRounds int) (*explorer.Explorer, []ast.Stmt) {
	program := loadProgram(programPath)
	st := state.New(refsolver.New(), program)
	ex := explorer.New(interp.New(), st)
	ex.MaxRound = maxRounds
	return ex, program
}

func runCmd(args []string, verbose bool) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "symex run: missing program path")
		os.Exit(1)
	}
	dsn, addr, maxRounds, rest := parseFlags(args)
	_ = addr
	programPath := rest[0]

	ex, _ := newExplorer(programPath, maxRounds)
	if verbose {
		ex.Observer = func(round int, groups *explorer.Groups) {
			fmt.Printf("round %d: active=%d completed=%d deadended=%d errored=%d\n",
				round, len(groups.Active), len(groups.Completed), len(groups.Deadended), len(groups.Errored))
		}
	}

	started := time.Now()
	groups, err := ex.Explore(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: %v\n", err)
		os.Exit(1)
	}

	summary := reporting.Summarize(programPath, started, groups)
	reporting.WriteText(os.Stdout, os.Stdout, summary)

	if dsn != "" {
		persistWitnesses(programPath, dsn, groups)
	}
}

func queryCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "symex query: missing program path")
		os.Exit(1)
	}
	dsn, _, maxRounds, rest := parseFlags(args)
	programPath := rest[0]

	ex, _ := newExplorer(programPath, maxRounds)
	started := time.Now()
	groups, err := ex.Explore(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: %v\n", err)
		os.Exit(1)
	}

	summary := reporting.Summarize(programPath, started, groups)

	all := append(append([]*path.Path{}, groups.Completed...), groups.Deadended...)
	witnesses, err := explorer.QueryWitnesses(context.Background(), all)
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: query: %v\n", err)
		os.Exit(1)
	}
	report := queryReport{Summary: summary, Witnesses: witnesses}
	if err := writeJSON(os.Stdout, report); err != nil {
		fmt.Fprintf(os.Stderr, "symex: %v\n", err)
		os.Exit(1)
	}

	if dsn != "" {
		persistWitnesses(programPath, dsn, groups)
	}
}

// queryReport pairs an exploration summary with its concurrently-gathered
// witness set, the shape "symex query" emits.
type queryReport struct {
	Summary   reporting.Summary  `json:"summary"`
	Witnesses []explorer.Witness `json:"witnesses"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "symex serve: missing program path")
		os.Exit(1)
	}
	dsn, addr, maxRounds, rest := parseFlags(args)
	if addr == "" {
		addr = "127.0.0.1:8765"
	}
	programPath := rest[0]

	lv := liveview.New(addr)
	lv.Start()
	defer lv.Close()
	fmt.Printf("symex: liveview listening on ws://%s/ws\n", addr)

	ex, _ := newExplorer(programPath, maxRounds)
	ex.Observer = func(round int, groups *explorer.Groups) {
		lv.Broadcast(round, groups)
	}

	started := time.Now()
	groups, err := ex.Explore(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: %v\n", err)
		os.Exit(1)
	}

	summary := reporting.Summarize(programPath, started, groups)
	reporting.WriteText(os.Stdout, os.Stdout, summary)

	if dsn != "" {
		persistWitnesses(programPath, dsn, groups)
	}
}

func persistWitnesses(source, dsn string, groups *explorer.Groups) {
	ctx := context.Background()
	store, err := tracestore.Open(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: tracestore: %v\n", err)
		return
	}
	defer store.Close()

	run, err := store.BeginRun(ctx, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "symex: tracestore: %v\n", err)
		return
	}
	for _, p := range groups.Completed {
		witnesses, err := tracestore.CollectWitnesses(p.State, p.ID, p.Status.String())
		if err != nil {
			continue
		}
		store.RecordWitnesses(ctx, run.ID, witnesses)
	}
	store.FinishRun(ctx, run.ID)
}

// parseFlags is a minimal hand-rolled scanner, not flag.FlagSet, so flags
// and the trailing program path can be freely interleaved the way the
// teacher's own command parsing accepts "sentra run -v prog.sn".
func parseFlags(args []string) (dsn, addr string, maxRounds int, rest []string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-db":
			i++
			if i < len(args) {
				dsn = args[i]
			}
		case "-addr":
			i++
			if i < len(args) {
				addr = args[i]
			}
		case "-max-rounds":
			i++
			if i < len(args) {
				fmt.Sscanf(args[i], "%d", &maxRounds)
			}
		default:
			rest = append(rest, args[i])
		}
	}
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "symex: missing program path")
		os.Exit(1)
	}
	return dsn, addr, maxRounds, rest
}
