package eval

import (
	"fmt"
	"sort"

	"github.com/textspan/speechmark/core/errors"
)

// Fold is one train/test partition of a document set. Membership is by
// document ID: all paragraphs of a document land on the same side, so no
// document leaks between train and test.
type Fold struct {
	Train []string `json:"train"`
	Test  []string `json:"test"`
}

// GroupKFold partitions document IDs into k folds deterministically.
// Input order does not matter: IDs are deduplicated and sorted before
// round-robin assignment, so the same document set always yields the same
// folds.
func GroupKFold(docIDs []string, k int) ([]Fold, error) {
	if k < 2 {
		return nil, errors.NewValidation("k", fmt.Sprintf("need at least 2 folds, got %d", k))
	}

	unique := dedupeSorted(docIDs)
	if len(unique) < k {
		return nil, errors.NewValidation("doc_ids",
			fmt.Sprintf("need at least %d documents for %d folds, got %d", k, k, len(unique)))
	}

	buckets := make([][]string, k)
	for i, id := range unique {
		buckets[i%k] = append(buckets[i%k], id)
	}

	folds := make([]Fold, k)
	for f := range folds {
		for b, bucket := range buckets {
			if b == f {
				folds[f].Test = append(folds[f].Test, bucket...)
			} else {
				folds[f].Train = append(folds[f].Train, bucket...)
			}
		}
		sort.Strings(folds[f].Train)
		sort.Strings(folds[f].Test)
	}

	return folds, nil
}

// VerifyNoLeakage checks that every fold's train and test sets are
// disjoint and that together they cover the full document set.
func VerifyNoLeakage(folds []Fold, docIDs []string) error {
	unique := dedupeSorted(docIDs)
	all := make(map[string]bool, len(unique))
	for _, id := range unique {
		all[id] = true
	}

	for i, fold := range folds {
		seen := make(map[string]bool, len(fold.Train))
		for _, id := range fold.Train {
			seen[id] = true
		}
		for _, id := range fold.Test {
			if seen[id] {
				return errors.NewValidation("folds",
					fmt.Sprintf("document %s appears in both train and test of fold %d", id, i))
			}
		}
		if len(fold.Train)+len(fold.Test) != len(all) {
			return errors.NewValidation("folds",
				fmt.Sprintf("fold %d covers %d documents, want %d", i, len(fold.Train)+len(fold.Test), len(all)))
		}
	}
	return nil
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)
	return unique
}
