package eval

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/textspan/speechmark/core/corpus"
	"github.com/textspan/speechmark/core/errors"
)

// Labeler produces predicted labels for a document's paragraphs. The
// quote engine satisfies this interface.
type Labeler interface {
	LabelParagraphs(paragraphs []corpus.Paragraph) ([]corpus.LabeledParagraph, error)
}

// DocumentSample pairs one document's paragraphs with its gold label
// sequences. Gold holds one sequence per paragraph, aligned by index.
type DocumentSample struct {
	DocID      string
	Paragraphs []corpus.Paragraph
	Gold       [][]string
}

// ConfidenceInterval is a point estimate with percentile bounds and the
// bootstrap standard error.
type ConfidenceInterval struct {
	Point  float64 `json:"point"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	StdErr float64 `json:"std_err"`
}

// StatisticalResult is the outcome of a bootstrap evaluation: 95%
// percentile intervals for each score, plus the parameters needed to
// reproduce it.
type StatisticalResult struct {
	Precision ConfidenceInterval `json:"precision"`
	Recall    ConfidenceInterval `json:"recall"`
	F1        ConfidenceInterval `json:"f1"`
	Documents int                `json:"documents"`
	Resamples int                `json:"resamples"`
	Seed      int64              `json:"seed"`
}

// CVResult holds per-fold and pooled metrics from a cross-validated
// evaluation.
type CVResult struct {
	FoldMetrics []Metrics `json:"fold_metrics"`
	Pooled      Metrics   `json:"pooled"`
}

// EvaluateDocuments runs the labeler over every sample and returns pooled
// entity-level metrics.
func EvaluateDocuments(l Labeler, samples []DocumentSample) (Metrics, error) {
	var pooled Metrics
	for _, s := range samples {
		m, err := evaluateOne(l, s)
		if err != nil {
			return Metrics{}, err
		}
		pooled.Add(m)
	}
	return pooled, nil
}

func evaluateOne(l Labeler, s DocumentSample) (Metrics, error) {
	labeled, err := l.LabelParagraphs(s.Paragraphs)
	if err != nil {
		return Metrics{}, errors.Wrapf(err, "labeling %s", s.DocID)
	}
	pred := make([][]string, len(labeled))
	for i, lp := range labeled {
		pred[i] = lp.BIOLabels
	}
	m, err := Evaluate(s.Gold, pred)
	if err != nil {
		return Metrics{}, errors.Wrapf(err, "scoring %s", s.DocID)
	}
	return m, nil
}

// CrossValidate scores the labeler fold by fold under a document-level
// group k-fold split. The engine learns nothing from training data, so
// the train side exists only to keep the protocol comparable with
// learned systems: each fold's metrics come from its test documents
// alone.
func CrossValidate(l Labeler, samples []DocumentSample, k int) (CVResult, error) {
	ids := make([]string, len(samples))
	byID := make(map[string]DocumentSample, len(samples))
	for i, s := range samples {
		ids[i] = s.DocID
		byID[s.DocID] = s
	}

	folds, err := GroupKFold(ids, k)
	if err != nil {
		return CVResult{}, err
	}
	if err := VerifyNoLeakage(folds, ids); err != nil {
		return CVResult{}, err
	}

	result := CVResult{FoldMetrics: make([]Metrics, 0, k)}
	for _, fold := range folds {
		var foldMetrics Metrics
		for _, id := range fold.Test {
			m, err := evaluateOne(l, byID[id])
			if err != nil {
				return CVResult{}, err
			}
			foldMetrics.Add(m)
		}
		result.FoldMetrics = append(result.FoldMetrics, foldMetrics)
		result.Pooled.Add(foldMetrics)
	}

	return result, nil
}

// Bootstrap estimates 95% confidence intervals by resampling documents
// with replacement. The same seed and sample set always produce the same
// intervals.
func Bootstrap(l Labeler, samples []DocumentSample, resamples int, seed int64) (StatisticalResult, error) {
	if len(samples) == 0 {
		return StatisticalResult{}, errors.NewValidation("samples", "must not be empty")
	}
	if resamples < 1 {
		return StatisticalResult{}, errors.NewValidation("resamples",
			fmt.Sprintf("need at least 1 resample, got %d", resamples))
	}

	// Score each document once; resampling then only recombines counts.
	perDoc := make([]Metrics, len(samples))
	for i, s := range samples {
		m, err := evaluateOne(l, s)
		if err != nil {
			return StatisticalResult{}, err
		}
		perDoc[i] = m
	}

	var point Metrics
	for _, m := range perDoc {
		point.Add(m)
	}

	rng := rand.New(rand.NewSource(seed))
	precisions := make([]float64, resamples)
	recalls := make([]float64, resamples)
	f1s := make([]float64, resamples)

	for r := 0; r < resamples; r++ {
		var pooled Metrics
		for i := 0; i < len(perDoc); i++ {
			pooled.Add(perDoc[rng.Intn(len(perDoc))])
		}
		precisions[r] = pooled.Precision
		recalls[r] = pooled.Recall
		f1s[r] = pooled.F1
	}

	return StatisticalResult{
		Precision: interval(point.Precision, precisions),
		Recall:    interval(point.Recall, recalls),
		F1:        interval(point.F1, f1s),
		Documents: len(samples),
		Resamples: resamples,
		Seed:      seed,
	}, nil
}

// interval computes the 2.5th and 97.5th percentiles of scores along with
// their standard deviation, which is the bootstrap standard error.
func interval(point float64, scores []float64) ConfidenceInterval {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	return ConfidenceInterval{
		Point:  point,
		Lower:  percentile(sorted, 0.025),
		Upper:  percentile(sorted, 0.975),
		StdErr: stddev(scores),
	}
}

func stddev(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	var mean float64
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	var sum float64
	for _, s := range scores {
		d := s - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(scores)-1))
}

// percentile returns the p-th percentile of sorted values using the
// nearest-rank method.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// FormatResult renders a StatisticalResult for terminal output.
func FormatResult(r StatisticalResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "documents: %d  resamples: %d  seed: %d\n", r.Documents, r.Resamples, r.Seed)
	fmt.Fprintf(&sb, "precision: %.4f [%.4f, %.4f] se %.4f\n", r.Precision.Point, r.Precision.Lower, r.Precision.Upper, r.Precision.StdErr)
	fmt.Fprintf(&sb, "recall:    %.4f [%.4f, %.4f] se %.4f\n", r.Recall.Point, r.Recall.Lower, r.Recall.Upper, r.Recall.StdErr)
	fmt.Fprintf(&sb, "f1:        %.4f [%.4f, %.4f] se %.4f\n", r.F1.Point, r.F1.Lower, r.F1.Upper, r.F1.StdErr)
	return sb.String()
}
