package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// LoadCorpus reads every .txt file in dir, in name order. The source ID of a
// document is its file name without the extension.
func LoadCorpus(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no .txt documents in corpus dir %s", dir)
	}

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading corpus file %s: %w", name, err)
		}
		docs = append(docs, Document{
			Text:     string(b),
			SourceID: strings.TrimSuffix(name, ".txt"),
		})
	}
	return docs, nil
}

// Split cuts text into chunks of at most size runes. Lines are kept whole
// where they fit; consecutive chunks share up to overlap runes of trailing
// lines.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	units := splitUnits(text, size)
	var chunks []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(cur, "\n"))

		// carry trailing units into the next chunk
		var keep []string
		kept := 0
		for i := len(cur) - 1; i >= 0; i-- {
			n := utf8.RuneCountInString(cur[i]) + 1
			if kept+n > overlap {
				break
			}
			keep = append([]string{cur[i]}, keep...)
			kept += n
		}
		cur, curLen = keep, kept
	}

	for _, u := range units {
		n := utf8.RuneCountInString(u) + 1
		if curLen+n > size+1 && len(cur) > 0 {
			flush()
			// the carried overlap may still leave no room
			if curLen+n > size+1 {
				cur, curLen = nil, 0
			}
		}
		cur = append(cur, u)
		curLen += n
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, "\n"))
	}
	return chunks
}

// splitUnits breaks text into non-empty lines, cutting any line longer than
// size at word boundaries.
func splitUnits(text string, size int) []string {
	var units []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= size {
			units = append(units, line)
			continue
		}

		var b strings.Builder
		for _, w := range strings.Fields(line) {
			if b.Len() > 0 && utf8.RuneCountInString(b.String())+1+utf8.RuneCountInString(w) > size {
				units = append(units, b.String())
				b.Reset()
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w)
		}
		if b.Len() > 0 {
			units = append(units, b.String())
		}
	}
	return units
}
