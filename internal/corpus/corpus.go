// Package corpus resolves named benchmark corpora to a fixed, shuffled list of files.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrUnknownCorpus is returned when a corpus name has no configured root.
var ErrUnknownCorpus = errors.New("unknown corpus")

// DefaultRoots maps the built-in corpus names to their directories.
var DefaultRoots = map[string]string{
	"qoi-bench":       "corpus/qoi_benchmark_suite",
	"cwebp-qoi-bench": "corpus/cwebp_qoi_bench",
	"raw":             "corpus/raw",
}

// Corpus is an immutable, ordered list of input files.
type Corpus struct {
	Name  string
	Root  string
	Files []string
}

// Len returns the number of files in the corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Files)
}

// Provider resolves corpus names to file lists.
type Provider struct {
	roots map[string]string
	rnd   *rand.Rand
}

// NewProvider creates a provider over the given name→root mapping. A nil rnd
// uses a source seeded from the clock, so every process sees a fresh order.
func NewProvider(roots map[string]string, rnd *rand.Rand) *Provider {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	copied := make(map[string]string, len(roots))
	for name, root := range roots {
		copied[strings.ToLower(strings.TrimSpace(name))] = root
	}
	return &Provider{roots: copied, rnd: rnd}
}

// Names returns the configured corpus names in sorted order.
func (p *Provider) Names() []string {
	names := make([]string, 0, len(p.roots))
	for name := range p.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve enumerates every regular file below the named corpus root and returns
// them in one random permutation.
func (p *Provider) Resolve(name string) (*Corpus, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	root, ok := p.roots[key]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownCorpus, name, strings.Join(p.Names(), ", "))
	}

	files, err := walk(root)
	if err != nil {
		return nil, fmt.Errorf("corpus %q: %w", name, err)
	}

	// Sorting first makes the permutation depend only on the random source.
	sort.Strings(files)
	p.rnd.Shuffle(len(files), func(i, j int) {
		files[i], files[j] = files[j], files[i]
	})

	return &Corpus{Name: key, Root: root, Files: files}, nil
}

// FromFiles builds a corpus from explicit file paths, kept in the given order.
func FromFiles(name string, paths ...string) (*Corpus, error) {
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("corpus %q: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("corpus %q: %s is not a regular file", name, path)
		}
		files = append(files, path)
	}
	return &Corpus{Name: name, Files: files}, nil
}

func walk(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
