package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"threatcat/internal/classifier"
	"threatcat/internal/models"
	"threatcat/internal/vectorizer"
)

const (
	DefaultVectorizerFile = "tfidf_vectorizer.json"
	DefaultClassifierFile = "threat_model.json"
)

// Store reads and writes an artifact pair at fixed paths.
type Store struct {
	Dir            string
	VectorizerFile string
	ClassifierFile string
}

// NewStore returns a Store rooted at dir. Empty file names fall back to
// the defaults.
func NewStore(dir, vectorizerFile, classifierFile string) *Store {
	if vectorizerFile == "" {
		vectorizerFile = DefaultVectorizerFile
	}
	if classifierFile == "" {
		classifierFile = DefaultClassifierFile
	}
	return &Store{Dir: dir, VectorizerFile: vectorizerFile, ClassifierFile: classifierFile}
}

func (s *Store) VectorizerPath() string {
	return filepath.Join(s.Dir, s.VectorizerFile)
}

func (s *Store) ClassifierPath() string {
	return filepath.Join(s.Dir, s.ClassifierFile)
}

// Save writes both files of p. Each file is written to a temporary file
// in the target directory first; nothing is renamed into place unless
// both temporary files were written and synced.
func (s *Store) Save(p *Pair) error {
	if p == nil || p.Vectorizer == nil || p.Classifier == nil {
		return models.ErrNotFitted
	}
	vs, err := p.Vectorizer.State()
	if err != nil {
		return fmt.Errorf("vectorizer state: %w", err)
	}
	cs, err := p.Classifier.State()
	if err != nil {
		return fmt.Errorf("classifier state: %w", err)
	}

	vecDoc := vectorizerFile{Header: s.header(p, KindVectorizer), State: vs}
	clfDoc := classifierFile{Header: s.header(p, KindClassifier), State: cs}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	vecTmp, err := writeTemp(s.Dir, s.VectorizerFile, vecDoc)
	if err != nil {
		return err
	}
	clfTmp, err := writeTemp(s.Dir, s.ClassifierFile, clfDoc)
	if err != nil {
		os.Remove(vecTmp)
		return err
	}

	if err := os.Rename(vecTmp, s.VectorizerPath()); err != nil {
		os.Remove(vecTmp)
		os.Remove(clfTmp)
		return fmt.Errorf("install vectorizer: %w", err)
	}
	if err := os.Rename(clfTmp, s.ClassifierPath()); err != nil {
		os.Remove(clfTmp)
		return fmt.Errorf("install classifier: %w", err)
	}
	log.Infof("Saved artifact pair %s to %s", p.RunID, s.Dir)
	return nil
}

func (s *Store) header(p *Pair, kind string) Header {
	return Header{
		Kind:          kind,
		FormatVersion: FormatVersion,
		RunID:         p.RunID,
		CreatedAt:     p.CreatedAt.UTC(),
	}
}

func writeTemp(dir, name string, doc any) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(doc); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return f.Name(), nil
}

// Load reads both files and checks that they form a matched pair. Every
// failure wraps models.ErrArtifactLoad.
func (s *Store) Load() (*Pair, error) {
	var vecDoc vectorizerFile
	if err := readDoc(s.VectorizerPath(), KindVectorizer, &vecDoc, &vecDoc.Header); err != nil {
		return nil, err
	}
	var clfDoc classifierFile
	if err := readDoc(s.ClassifierPath(), KindClassifier, &clfDoc, &clfDoc.Header); err != nil {
		return nil, err
	}
	if vecDoc.RunID != clfDoc.RunID {
		return nil, fmt.Errorf("%w: vectorizer is from run %q but classifier is from run %q",
			models.ErrArtifactLoad, vecDoc.RunID, clfDoc.RunID)
	}

	vec, err := vectorizer.FromState(vecDoc.State)
	if err != nil {
		return nil, err
	}
	clf, err := classifier.FromState(clfDoc.State)
	if err != nil {
		return nil, err
	}
	p, err := NewPair(vecDoc.RunID, vecDoc.CreatedAt, vec, clf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrArtifactLoad, err)
	}
	log.Debugf("Loaded artifact pair %s (%d terms, %d classes)", p.RunID, vec.Dim(), len(clf.Classes))
	return p, nil
}

func readDoc(path, kind string, doc any, h *Header) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist, run training first", models.ErrArtifactLoad, path)
		}
		return fmt.Errorf("%w: read %s: %v", models.ErrArtifactLoad, path, err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: decode %s: %v", models.ErrArtifactLoad, path, err)
	}
	if h.Kind != kind {
		return fmt.Errorf("%w: %s has kind %q, expected %q", models.ErrArtifactLoad, path, h.Kind, kind)
	}
	if h.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: %s has format version %d, expected %d",
			models.ErrArtifactLoad, path, h.FormatVersion, FormatVersion)
	}
	return nil
}

// Inspect reads only the headers of both files.
func (s *Store) Inspect() (vec, clf Header, err error) {
	var vecDoc vectorizerFile
	if err = readDoc(s.VectorizerPath(), KindVectorizer, &vecDoc, &vecDoc.Header); err != nil {
		return
	}
	var clfDoc classifierFile
	if err = readDoc(s.ClassifierPath(), KindClassifier, &clfDoc, &clfDoc.Header); err != nil {
		return
	}
	return vecDoc.Header, clfDoc.Header, nil
}
