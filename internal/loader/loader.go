// Package loader reads TEI corpora from the filesystem. It accepts plain
// .xml/.tei files and their .xz-compressed variants, plus gzip for corpora
// packaged with standard tooling.
package loader

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/textspan/speechmark/core/corpus"
	"github.com/textspan/speechmark/core/errors"
	"github.com/textspan/speechmark/core/tei"
	"github.com/textspan/speechmark/internal/logging"
)

// Options controls corpus loading.
type Options struct {
	// MaxDocs caps the number of documents loaded; 0 means no limit.
	MaxDocs int
}

// Load reads every TEI document under dir, in sorted filename order, and
// returns the extracted documents. Files that fail to parse are logged
// and skipped; an unreadable directory is an error.
func Load(dir string, opts Options) ([]corpus.Document, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}

	var docs []corpus.Document
	for _, path := range paths {
		if opts.MaxDocs > 0 && len(docs) >= opts.MaxDocs {
			break
		}

		doc, err := LoadFile(path)
		if err != nil {
			logging.DocumentError(DocID(path), "load", err)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// LoadFile reads one TEI document, decompressing as needed.
func LoadFile(path string) (corpus.Document, error) {
	data, err := ReadFile(path)
	if err != nil {
		return corpus.Document{}, err
	}
	return tei.ExtractDocument(DocID(path), data)
}

// ReadFile returns the decompressed contents of path. Compression is
// chosen by extension: .xz and .gz wrap the underlying document, anything
// else is read as-is.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		reader = xzr
	case strings.HasSuffix(path, ".gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		defer gzr.Close()
		reader = gzr
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

// DocID derives the document identifier from a path: the base name with
// every recognized extension stripped ("novels/moby.xml.xz" -> "moby").
func DocID(path string) string {
	name := filepath.Base(path)
	for {
		ext := filepath.Ext(name)
		switch strings.ToLower(ext) {
		case ".xml", ".tei", ".xz", ".gz":
			name = strings.TrimSuffix(name, ext)
		default:
			return name
		}
	}
}

// Files lists the TEI files under dir, sorted for deterministic document
// order.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIO("read dir", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isCorpusFile(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// isCorpusFile reports whether name looks like a TEI document, possibly
// compressed.
func isCorpusFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".xml", ".tei", ".xml.xz", ".tei.xz", ".xml.gz", ".tei.gz"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
