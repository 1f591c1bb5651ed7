// Package batch runs the labeling engine over whole corpora. Documents
// are independent, so the pass parallelizes per document; one failing
// document is reported and skipped, never aborting the run.
package batch

import (
	"context"

	"github.com/textspan/speechmark/core/corpus"
	"github.com/textspan/speechmark/core/quote"
	"github.com/textspan/speechmark/internal/logging"
)

// Progress describes one completed document within a run.
type Progress struct {
	RunID     string `json:"run_id,omitempty"`
	DocID     string `json:"doc_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Spans     int    `json:"spans"`
	Failed    bool   `json:"failed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of labeling one document. Err is set when the
// document failed; the remaining fields are then zero.
type Result struct {
	Doc     corpus.Document
	Labeled []corpus.LabeledParagraph
	Spans   []quote.Span
	Err     error
}

// Runner labels corpora with a shared engine configuration.
type Runner struct {
	cfg        quote.Config
	workers    int
	onProgress func(Progress)
}

// NewRunner returns a Runner. workers <= 0 means one worker per CPU;
// onProgress may be nil.
func NewRunner(cfg quote.Config, workers int, onProgress func(Progress)) *Runner {
	return &Runner{cfg: cfg, workers: workers, onProgress: onProgress}
}

type job struct {
	idx int
	doc corpus.Document
}

type outcome struct {
	idx    int
	result Result
}

// Run labels every document and returns results in input order. Progress
// callbacks fire in completion order from the collecting goroutine, so
// callbacks need no locking of their own. Cancelling ctx stops new
// documents from being processed; documents already in flight finish.
func (r *Runner) Run(ctx context.Context, runID string, docs []corpus.Document) []Result {
	results := make([]Result, len(docs))
	if len(docs) == 0 {
		return results
	}

	labeler := quote.NewLabeler(r.cfg)
	matcher := quote.NewMatcher(r.cfg)

	pool := NewWorkerPool[job, outcome](r.workers, len(docs))
	pool.Start(func(j job) outcome {
		if err := ctx.Err(); err != nil {
			return outcome{idx: j.idx, result: Result{Doc: j.doc, Err: err}}
		}
		return outcome{idx: j.idx, result: labelOne(labeler, matcher, j.doc)}
	})

	for i, doc := range docs {
		pool.Submit(job{idx: i, doc: doc})
	}
	pool.Close()

	completed := 0
	for out := range pool.Results() {
		results[out.idx] = out.result
		completed++
		r.report(runID, out.result, completed, len(docs))
	}

	return results
}

func labelOne(labeler *quote.Labeler, matcher *quote.Matcher, doc corpus.Document) Result {
	labeled, err := labeler.LabelDocument(doc)
	if err != nil {
		return Result{Doc: doc, Err: err}
	}
	return Result{
		Doc:     doc,
		Labeled: labeled,
		Spans:   matcher.FindSpans(doc.Paragraphs),
	}
}

func (r *Runner) report(runID string, res Result, completed, total int) {
	p := Progress{
		RunID:     runID,
		DocID:     res.Doc.ID,
		Completed: completed,
		Total:     total,
		Spans:     len(res.Spans),
	}
	if res.Err != nil {
		p.Failed = true
		p.Error = res.Err.Error()
		logging.DocumentError(res.Doc.ID, "label", res.Err)
	} else {
		logging.DocumentEvent("labeled", res.Doc.ID, "spans", len(res.Spans), "completed", completed, "total", total)
	}
	if r.onProgress != nil {
		r.onProgress(p)
	}
}
