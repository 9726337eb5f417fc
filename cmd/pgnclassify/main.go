// Command pgnclassify prints the opening of every game in one or more PGN files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vytor/pgnbase/internal/enrich"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/opening"
	"github.com/vytor/pgnbase/internal/pgn"
)

var (
	treeURL  = flag.String("tree", "", "opening tree base URL (empty uses the ECO index only)")
	ecoPath  = flag.String("eco", "", "ECO corpus JSON file (empty uses the bundled corpus)")
	asJSON   = flag.Bool("json", false, "print one JSON object per game")
	timeout  = flag.Duration("timeout", 5*time.Second, "opening tree request timeout")
	logLevel = flag.String("log", "WARN", "log level")
)

type classification struct {
	Game    int    `json:"game"`
	White   string `json:"white"`
	Black   string `json:"black"`
	ECO     string `json:"eco"`
	Opening string `json:"opening"`
	Source  string `json:"source"`
	// Changed reports whether the result differs from the game's own Opening/ECO tags.
	Changed bool `json:"changed"`
}

func main() {
	flag.Parse()
	logger.SetDefault(logger.New(logger.WithLevel(logger.ParseLevel(*logLevel)), logger.WithOutput(os.Stderr)))
	log := logger.Default()

	index, err := opening.LoadIndex(*ecoPath)
	if err != nil {
		log.Error("failed to load eco corpus: %v", err)
		os.Exit(1)
	}

	var tree opening.TreeSource
	if *treeURL != "" {
		client := opening.NewTreeClient(*treeURL, *timeout)
		if _, err := client.Load(context.Background()); err != nil {
			log.Warn("continuing without opening tree: %v", err)
		}
		tree = client
	}
	resolver := opening.NewResolver(index, tree)

	inputs := flag.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, name := range inputs {
		if err := classifyFile(os.Stdout, name, resolver, *asJSON); err != nil {
			log.Error("%s: %v", name, err)
			os.Exit(1)
		}
	}
}

func classifyFile(w io.Writer, name string, c enrich.Classifier, jsonOut bool) error {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return classify(w, r, c, jsonOut)
}

func classify(w io.Writer, r io.Reader, c enrich.Classifier, jsonOut bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for i, game := range pgn.ParseRecords(string(data)) {
		out := classification{Game: i + 1, White: game.White, Black: game.Black}
		if res, changed := enrich.Classify(c, game); res != nil {
			out.ECO, out.Opening, out.Source, out.Changed = res.ECO, res.Name, string(res.Source), changed
		}

		if jsonOut {
			if err := enc.Encode(out); err != nil {
				return err
			}
			continue
		}
		name := out.Opening
		if name == "" {
			name = "?"
		}
		line := []string{fmt.Sprint(out.Game), out.White + " - " + out.Black, out.ECO, name, out.Source}
		if _, err := fmt.Fprintln(w, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	return nil
}
