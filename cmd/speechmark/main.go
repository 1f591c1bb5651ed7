// Command speechmark detects direct speech in TEI corpora and labels
// tokens with BIO tags. It can run over whole corpora, persist runs to
// SQLite, evaluate predictions against TEI gold annotations, and serve
// stored runs over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/textspan/speechmark/core/dataset"
	"github.com/textspan/speechmark/core/eval"
	"github.com/textspan/speechmark/core/quote"
	"github.com/textspan/speechmark/core/tei"
	"github.com/textspan/speechmark/internal/api"
	"github.com/textspan/speechmark/internal/batch"
	"github.com/textspan/speechmark/internal/loader"
	"github.com/textspan/speechmark/internal/logging"
)

const version = "0.2.0"

// CLI defines the command-line interface for speechmark.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	Label    LabelCmd    `cmd:"" help:"Label a corpus and optionally persist the run"`
	Evaluate EvaluateCmd `cmd:"" help:"Evaluate predictions against TEI gold annotations"`
	Info     InfoCmd     `cmd:"" help:"Inspect a stored run"`
	Stats    StatsCmd    `cmd:"" help:"Print corpus statistics"`
	Serve    ServeCmd    `cmd:"" help:"Serve stored runs over HTTP"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// engineFlags are the flags shared by commands that run the engine.
type engineFlags struct {
	SpeechLabel      string `name:"speech-label" default:"DIRECT" help:"Label suffix for detected speech"`
	NoMultiParagraph bool   `name:"no-multi-paragraph" help:"Drop quotes left open at document end"`
}

func (f engineFlags) config() quote.Config {
	cfg := quote.DefaultConfig()
	cfg.SpeechLabel = f.SpeechLabel
	cfg.HandleMultiParagraph = !f.NoMultiParagraph
	return cfg
}

// LabelCmd labels every document in a corpus directory.
type LabelCmd struct {
	engineFlags
	Corpus   string `arg:"" help:"Corpus directory of TEI files (.xml/.tei, optionally .xz/.gz)" type:"existingdir"`
	Store    string `name:"store" help:"SQLite database to record the run in" type:"path"`
	RunLabel string `name:"run-label" help:"Human-readable name for the stored run"`
	MaxDocs  int    `name:"max-docs" help:"Limit the number of documents loaded"`
	Workers  int    `name:"workers" help:"Concurrent documents (default: CPU count)"`
	JSON     bool   `name:"json" help:"Write labeled paragraphs to stdout as JSON"`
}

func (c *LabelCmd) Run() error {
	ctx := context.Background()
	cfg := c.config()

	docs, err := loader.Load(c.Corpus, loader.Options{MaxDocs: c.MaxDocs})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no TEI documents found in %s", c.Corpus)
	}
	logging.Info("corpus loaded", "documents", len(docs), "dir", c.Corpus)

	var store *dataset.Store
	var run dataset.Run
	if c.Store != "" {
		store, err = dataset.Open(c.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		run, err = store.CreateRun(ctx, c.RunLabel, c.Corpus, cfg)
		if err != nil {
			return err
		}
		logging.Info("run created", "run_id", run.ID)
	}

	results := batch.NewRunner(cfg, c.Workers, nil).Run(ctx, run.ID, docs)

	failed := 0
	totalSpans := 0
	enc := json.NewEncoder(os.Stdout)
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		totalSpans += len(res.Spans)
		if store != nil {
			if err := store.SaveDocument(ctx, run.ID, res.Doc, res.Labeled, res.Spans); err != nil {
				return err
			}
		}
		if c.JSON {
			if err := enc.Encode(res.Labeled); err != nil {
				return err
			}
		}
	}

	logging.Info("labeling finished",
		"documents", len(docs), "failed", failed, "spans", totalSpans)
	if failed == len(docs) {
		return fmt.Errorf("all %d documents failed", failed)
	}
	return nil
}

// EvaluateCmd scores engine output against the corpus's own annotations.
type EvaluateCmd struct {
	engineFlags
	Corpus    string `arg:"" help:"Corpus directory of annotated TEI files" type:"existingdir"`
	MaxDocs   int    `name:"max-docs" help:"Limit the number of documents loaded"`
	Folds     int    `name:"folds" help:"Cross-validation folds (0 disables CV)"`
	Bootstrap int    `name:"bootstrap" default:"1000" help:"Bootstrap resamples for confidence intervals (0 disables)"`
	Seed      int64  `name:"seed" default:"42" help:"Bootstrap random seed"`
}

func (c *EvaluateCmd) Run() error {
	cfg := c.config()
	samples, err := c.loadSamples(cfg)
	if err != nil {
		return err
	}
	logging.Info("evaluation corpus loaded", "documents", len(samples))

	labeler := quote.NewLabeler(cfg)

	pooled, err := eval.EvaluateDocuments(labeler, samples)
	if err != nil {
		return err
	}
	fmt.Printf("entities: %d gold matched, %d spurious, %d missed\n",
		pooled.TruePositives, pooled.FalsePositives, pooled.FalseNegatives)
	fmt.Printf("precision: %.4f  recall: %.4f  f1: %.4f\n",
		pooled.Precision, pooled.Recall, pooled.F1)

	if c.Folds > 1 {
		cv, err := eval.CrossValidate(labeler, samples, c.Folds)
		if err != nil {
			return err
		}
		for i, m := range cv.FoldMetrics {
			fmt.Printf("fold %d: precision %.4f  recall %.4f  f1 %.4f\n", i, m.Precision, m.Recall, m.F1)
		}
	}

	if c.Bootstrap > 0 {
		result, err := eval.Bootstrap(labeler, samples, c.Bootstrap, c.Seed)
		if err != nil {
			return err
		}
		fmt.Print(eval.FormatResult(result))
	}
	return nil
}

func (c *EvaluateCmd) loadSamples(cfg quote.Config) ([]eval.DocumentSample, error) {
	paths, err := loader.Files(c.Corpus)
	if err != nil {
		return nil, err
	}

	var samples []eval.DocumentSample
	for _, path := range paths {
		if c.MaxDocs > 0 && len(samples) >= c.MaxDocs {
			break
		}
		docID := loader.DocID(path)

		data, err := loader.ReadFile(path)
		if err != nil {
			logging.DocumentError(docID, "read", err)
			continue
		}
		doc, err := tei.ExtractDocument(docID, data)
		if err != nil {
			logging.DocumentError(docID, "extract", err)
			continue
		}
		gold, err := tei.ExtractGold(docID, data, cfg.SpeechLabel)
		if err != nil {
			logging.DocumentError(docID, "extract gold", err)
			continue
		}

		sample := eval.DocumentSample{DocID: docID, Paragraphs: doc.Paragraphs}
		for _, lp := range gold {
			sample.Gold = append(sample.Gold, lp.BIOLabels)
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no annotated documents found in %s", c.Corpus)
	}
	return samples, nil
}

// InfoCmd prints a stored run, or lists all runs when no ID is given.
type InfoCmd struct {
	Store string `name:"store" required:"" help:"SQLite run database" type:"existingfile"`
	ID    string `arg:"" optional:"" help:"Run ID to inspect"`
}

func (c *InfoCmd) Run() error {
	ctx := context.Background()
	store, err := dataset.Open(c.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.ID == "" {
		runs, err := store.ListRuns(ctx)
		if err != nil {
			return err
		}
		for _, run := range runs {
			fmt.Printf("%s  %s  %d documents  %s\n",
				run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Documents, run.Label)
		}
		return nil
	}

	run, err := store.GetRun(ctx, c.ID)
	if err != nil {
		return err
	}
	records, err := store.ListDocuments(ctx, c.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run %s (%s)\n", run.ID, run.Label)
	fmt.Printf("created: %s\ncorpus: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"), run.CorpusDir)
	fmt.Printf("config: label=%s multi-paragraph=%v\n", run.Config.SpeechLabel, run.Config.HandleMultiParagraph)
	for _, rec := range records {
		fmt.Printf("  %s  %d paragraphs  %d spans  %s\n", rec.DocID, rec.Paragraphs, rec.Spans, rec.Title)
	}
	return nil
}

// StatsCmd prints corpus statistics from a single labeling pass.
type StatsCmd struct {
	engineFlags
	Corpus  string `arg:"" help:"Corpus directory of TEI files" type:"existingdir"`
	MaxDocs int    `name:"max-docs" help:"Limit the number of documents loaded"`
}

func (c *StatsCmd) Run() error {
	docs, err := loader.Load(c.Corpus, loader.Options{MaxDocs: c.MaxDocs})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no TEI documents found in %s", c.Corpus)
	}

	labeler := quote.NewLabeler(c.config())
	var paragraphs, tokens, speechTokens, speechParagraphs int
	for _, doc := range docs {
		labeled, err := labeler.LabelDocument(doc)
		if err != nil {
			logging.DocumentError(doc.ID, "label", err)
			continue
		}
		for _, lp := range labeled {
			paragraphs++
			tokens += len(lp.Tokens)
			inSpeech := 0
			for _, label := range lp.BIOLabels {
				if label != quote.LabelOutside {
					inSpeech++
				}
			}
			speechTokens += inSpeech
			if inSpeech > 0 {
				speechParagraphs++
			}
		}
	}

	fmt.Printf("documents:  %d\n", len(docs))
	fmt.Printf("paragraphs: %d (%d containing speech)\n", paragraphs, speechParagraphs)
	fmt.Printf("tokens:     %d\n", tokens)
	if tokens > 0 {
		fmt.Printf("speech:     %d tokens (%.2f%%)\n", speechTokens, 100*float64(speechTokens)/float64(tokens))
	}
	return nil
}

// ServeCmd runs the HTTP API server.
type ServeCmd struct {
	engineFlags
	Port  int    `name:"port" default:"8080" help:"TCP port to listen on"`
	Store string `name:"store" help:"SQLite run database to serve" type:"path"`
}

func (c *ServeCmd) Run() error {
	cfg := api.Config{Port: c.Port, EngineConfig: c.config()}

	if c.Store != "" {
		store, err := dataset.Open(c.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Store = store
	}

	return api.NewServer(cfg).ListenAndServe()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("speechmark %s (sqlite: %s)\n", version, dataset.DriverType())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("speechmark"),
		kong.Description("Deterministic direct-speech detection for literary corpora"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
