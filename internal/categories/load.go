// Package categories loads an image-category taxonomy and turns it into the
// ordered category vectors that lyric lines are assigned against.
package categories

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/kashi/internal/models"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Category is one entry of the taxonomy.
type Category = models.Category

// Load reads a taxonomy file. The format follows the extension:
// .yaml/.yml and .json hold an id to name mapping or a list of names,
// .xlsx holds id | name rows on the first sheet, anything else is text.
func Load(path string) ([]Category, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	cats, err := LoadBytes(content, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cats, nil
}

// LoadBytes parses a taxonomy from content. Ids must be unique.
func LoadBytes(content []byte, ext string) ([]Category, error) {
	var (
		cats []Category
		err  error
	)
	switch ext {
	case ".yaml", ".yml":
		cats, err = loadYAML(content)
	case ".json":
		cats, err = loadJSON(content)
	case ".xlsx":
		cats, err = loadXLSX(content)
	default:
		cats, err = loadText(content)
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = true
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("no categories")
	}
	return cats, nil
}

func loadYAML(content []byte) ([]Category, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	var cats []Category
	switch root.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			cats = append(cats, Category{ID: root.Content[i].Value, Name: root.Content[i+1].Value})
		}
	case yaml.SequenceNode:
		for i, n := range root.Content {
			cats = append(cats, Category{ID: strconv.Itoa(i), Name: n.Value})
		}
	default:
		return nil, fmt.Errorf("yaml categories must be a mapping or a list")
	}
	return cats, nil
}

// loadJSON walks the token stream so that object key order is preserved.
func loadJSON(content []byte) ([]Category, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	var cats []Category
	switch tok {
	case json.Delim('{'):
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("parse json: %w", err)
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("parse json: category %v: %w", key, err)
			}
			name, err := jsonName(raw)
			if err != nil {
				return nil, fmt.Errorf("parse json: category %v: %w", key, err)
			}
			cats = append(cats, Category{ID: key.(string), Name: name})
		}
	case json.Delim('['):
		for i := 0; dec.More(); i++ {
			var name string
			if err := dec.Decode(&name); err != nil {
				return nil, fmt.Errorf("parse json: category %d: %w", i, err)
			}
			cats = append(cats, Category{ID: strconv.Itoa(i), Name: name})
		}
	default:
		return nil, fmt.Errorf("json categories must be an object or an array")
	}
	return cats, nil
}

// jsonName accepts a plain name or the ["n01440764", "tench"] pair used by
// imagenet_class_index.json.
func jsonName(raw json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, nil
	}
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return "", fmt.Errorf("want a name or an [id, name] pair")
	}
	return pair[1], nil
}

var (
	// textKeyed matches "id: name" and the Python dict form "0: 'tench, Tinca tinca',".
	textKeyed = regexp.MustCompile(`^['"]?([^'":]+?)['"]?\s*:\s*(.+?),?$`)
	// synsetLine matches WordNet synset lines such as "n01440764 tench, Tinca tinca".
	synsetLine = regexp.MustCompile(`^(n\d{8})\s+(.+)$`)
)

func loadText(content []byte) ([]Category, error) {
	var cats []Category
	scanner := bufio.NewScanner(bytes.NewReader(content))
	i := 0
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(s, "}"), "{"))
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		var c Category
		if m := synsetLine.FindStringSubmatch(s); m != nil {
			c = Category{ID: m[1], Name: m[2]}
		} else if m := textKeyed.FindStringSubmatch(s); m != nil {
			c = Category{ID: strings.TrimSpace(m[1]), Name: strings.Trim(m[2], `'" `)}
		} else {
			c = Category{ID: strconv.Itoa(i), Name: s}
		}
		cats = append(cats, c)
		i++
	}
	return cats, scanner.Err()
}

func loadXLSX(content []byte) ([]Category, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	var cats []Category
	for r, row := range rows {
		if r == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "id") {
			continue
		}
		switch {
		case len(row) >= 2 && strings.TrimSpace(row[1]) != "":
			cats = append(cats, Category{ID: strings.TrimSpace(row[0]), Name: strings.TrimSpace(row[1])})
		case len(row) == 1 && strings.TrimSpace(row[0]) != "":
			cats = append(cats, Category{ID: strconv.Itoa(len(cats)), Name: strings.TrimSpace(row[0])})
		}
	}
	return cats, nil
}
