// Package dataset persists labeling runs to SQLite.
//
// A run is one pass of the engine over a corpus: its configuration, every
// document it touched, the labeled paragraphs and the detected spans. Runs
// are immutable once written; re-labeling a corpus creates a new run.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/textspan/speechmark/core/corpus"
	"github.com/textspan/speechmark/core/errors"
	"github.com/textspan/speechmark/core/quote"
	"github.com/textspan/speechmark/core/spanref"
)

// DriverName returns the SQL driver name in use.
func DriverName() string { return driverName }

// DriverType returns "purego" or "cgo".
func DriverType() string { return driverType }

// Run is one recorded engine pass.
type Run struct {
	// ID is the run's UUID.
	ID string `json:"id"`

	// CreatedAt is the run creation time in UTC.
	CreatedAt time.Time `json:"created_at"`

	// Label is an optional human-readable name for the run.
	Label string `json:"label,omitempty"`

	// CorpusDir is the corpus directory the run was produced from.
	CorpusDir string `json:"corpus_dir,omitempty"`

	// Config is the engine configuration used for the run.
	Config quote.Config `json:"config"`

	// Documents is the number of documents stored under the run.
	Documents int `json:"documents"`
}

// DocumentRecord summarizes one stored document.
type DocumentRecord struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title,omitempty"`
	SourceHash string `json:"source_hash,omitempty"`
	Paragraphs int    `json:"paragraphs"`
	Spans      int    `json:"spans"`
}

// Store is a SQLite-backed run store. It is safe for concurrent use; the
// underlying *sql.DB pools connections.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	corpus_dir  TEXT NOT NULL DEFAULT '',
	config      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	doc_id      TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	source_hash TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, doc_id)
);
CREATE TABLE IF NOT EXISTS paragraphs (
	run_id   TEXT NOT NULL,
	doc_id   TEXT NOT NULL,
	para_idx INTEGER NOT NULL,
	para_id  TEXT NOT NULL,
	text     TEXT NOT NULL,
	tokens   TEXT NOT NULL,
	labels   TEXT NOT NULL,
	PRIMARY KEY (run_id, doc_id, para_idx)
);
CREATE TABLE IF NOT EXISTS spans (
	run_id   TEXT NOT NULL,
	doc_id   TEXT NOT NULL,
	span_idx INTEGER NOT NULL,
	ref      TEXT NOT NULL,
	char     TEXT NOT NULL,
	nesting  INTEGER NOT NULL,
	nested   INTEGER NOT NULL,
	PRIMARY KEY (run_id, doc_id, span_idx)
);
`

// Open opens (or creates) a store at path and ensures the schema exists.
// Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("initialize", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun records a new run and returns it with a fresh UUID.
func (s *Store) CreateRun(ctx context.Context, label, corpusDir string, cfg quote.Config) (Run, error) {
	run := Run{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Label:     label,
		CorpusDir: corpusDir,
		Config:    cfg,
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return Run{}, errors.Wrap(err, "encoding run config")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, label, corpus_dir, config) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Label, run.CorpusDir, string(cfgJSON))
	if err != nil {
		return Run{}, errors.Wrapf(err, "creating run %s", run.ID)
	}
	return run, nil
}

// SaveDocument stores one labeled document under a run in a single
// transaction.
func (s *Store) SaveDocument(ctx context.Context, runID string, doc corpus.Document, labeled []corpus.LabeledParagraph, spans []quote.Span) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (run_id, doc_id, title, source_hash) VALUES (?, ?, ?, ?)`,
		runID, doc.ID, doc.Title, doc.SourceHash)
	if err != nil {
		return errors.Wrapf(err, "storing document %s", doc.ID)
	}

	for i, lp := range labeled {
		tokens, err := json.Marshal(lp.Tokens)
		if err != nil {
			return errors.Wrapf(err, "encoding tokens of %s", lp.ParaID)
		}
		labels, err := json.Marshal(lp.BIOLabels)
		if err != nil {
			return errors.Wrapf(err, "encoding labels of %s", lp.ParaID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO paragraphs (run_id, doc_id, para_idx, para_id, text, tokens, labels) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, doc.ID, i, lp.ParaID, lp.Text, string(tokens), string(labels))
		if err != nil {
			return errors.Wrapf(err, "storing paragraph %s", lp.ParaID)
		}
	}

	for i, span := range spans {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO spans (run_id, doc_id, span_idx, ref, char, nesting, nested) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, doc.ID, i, spanref.FromSpan(span).String(), string(span.Char), span.Nesting, boolInt(span.IsNested))
		if err != nil {
			return errors.Wrapf(err, "storing span %d of %s", i, doc.ID)
		}
	}

	return tx.Commit()
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.created_at, r.label, r.corpus_dir, r.config,
		        (SELECT COUNT(*) FROM documents d WHERE d.run_id = r.id)
		 FROM runs r WHERE r.id = ?`, id)

	var run Run
	var createdAt, cfgJSON string
	if err := row.Scan(&run.ID, &createdAt, &run.Label, &run.CorpusDir, &cfgJSON, &run.Documents); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, errors.NewNotFound("run", id)
		}
		return Run{}, errors.Wrapf(err, "loading run %s", id)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, errors.Wrapf(err, "parsing creation time of run %s", id)
	}
	run.CreatedAt = t

	if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
		return Run{}, errors.Wrapf(err, "decoding config of run %s", id)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning run id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}

	runs := make([]Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListDocuments returns summaries of a run's documents in doc ID order.
func (s *Store) ListDocuments(ctx context.Context, runID string) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.doc_id, d.title, d.source_hash,
		        (SELECT COUNT(*) FROM paragraphs p WHERE p.run_id = d.run_id AND p.doc_id = d.doc_id),
		        (SELECT COUNT(*) FROM spans sp WHERE sp.run_id = d.run_id AND sp.doc_id = d.doc_id)
		 FROM documents d WHERE d.run_id = ? ORDER BY d.doc_id`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing documents of run %s", runID)
	}
	defer rows.Close()

	var records []DocumentRecord
	for rows.Next() {
		var r DocumentRecord
		if err := rows.Scan(&r.DocID, &r.Title, &r.SourceHash, &r.Paragraphs, &r.Spans); err != nil {
			return nil, errors.Wrap(err, "scanning document record")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetDocument loads one document's labeled paragraphs from a run.
func (s *Store) GetDocument(ctx context.Context, runID, docID string) ([]corpus.LabeledParagraph, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT para_id, text, tokens, labels FROM paragraphs
		 WHERE run_id = ? AND doc_id = ? ORDER BY para_idx`, runID, docID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading document %s", docID)
	}
	defer rows.Close()

	var labeled []corpus.LabeledParagraph
	for rows.Next() {
		para := corpus.Paragraph{DocID: docID}
		var tokens, labels string
		if err := rows.Scan(&para.ParaID, &para.Text, &tokens, &labels); err != nil {
			return nil, errors.Wrap(err, "scanning paragraph")
		}
		if err := json.Unmarshal([]byte(tokens), &para.Tokens); err != nil {
			return nil, errors.Wrapf(err, "decoding tokens of %s", para.ParaID)
		}
		var bio []string
		if err := json.Unmarshal([]byte(labels), &bio); err != nil {
			return nil, errors.Wrapf(err, "decoding labels of %s", para.ParaID)
		}
		lp, err := corpus.NewLabeledParagraph(para, bio)
		if err != nil {
			return nil, err
		}
		labeled = append(labeled, lp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "loading document %s", docID)
	}
	if len(labeled) == 0 {
		return nil, errors.NewNotFound("document", docID)
	}
	return labeled, nil
}

// GetSpans loads one document's spans from a run, in detection order.
func (s *Store) GetSpans(ctx context.Context, runID, docID string) ([]quote.Span, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref, char, nesting, nested FROM spans
		 WHERE run_id = ? AND doc_id = ? ORDER BY span_idx`, runID, docID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading spans of %s", docID)
	}
	defer rows.Close()

	var spans []quote.Span
	for rows.Next() {
		var refStr, charStr string
		var nesting, nested int
		if err := rows.Scan(&refStr, &charStr, &nesting, &nested); err != nil {
			return nil, errors.Wrap(err, "scanning span")
		}
		ref, err := spanref.Parse(refStr)
		if err != nil {
			return nil, err
		}
		span := ref.Span()
		for _, r := range charStr {
			span.Char = r
			break
		}
		span.Nesting = nesting
		span.IsNested = nested != 0
		spans = append(spans, span)
	}
	return spans, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
