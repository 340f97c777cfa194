// Package source discovers and parses work order export files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/costcmp/internal/model"
)

// ErrUnrecognizedDocument is returned when a JSON export is neither an array
// nor one of the known envelope objects.
var ErrUnrecognizedDocument = errors.New("unrecognized export document")

// ParseFile reads an export file and returns its cost records.
// Entries are deduplicated by id, keeping the last one seen.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}
	defer func() { _ = f.Close() }()

	res := Decode(f, df.Format)
	res.File = df
	if res.Err != nil {
		res.Err = fmt.Errorf("%s: %w", df.Path, res.Err)
	}
	return res
}

// Decode parses records from r in the given format.
func Decode(r io.Reader, format Format) ParseResult {
	var (
		raws    []json.RawMessage
		skipped int
		err     error
	)
	if format == FormatJSONL {
		raws, skipped, err = splitLines(r)
	} else {
		raws, err = splitDocument(r)
	}
	if err != nil {
		return ParseResult{Err: err}
	}

	res := ParseResult{Skipped: skipped}
	index := make(map[model.Key]int)
	for _, raw := range raws {
		var rec model.CostRecord
		if !isObject(raw) || json.Unmarshal(raw, &rec) != nil {
			res.Skipped++
			continue
		}
		if rec.ID != "" {
			if i, ok := index[rec.ID]; ok {
				res.Records[i] = rec
				res.Duplicates++
				continue
			}
			index[rec.ID] = len(res.Records)
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func splitDocument(r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		switch {
		case env.Data != nil:
			return env.Data, nil
		case env.Items != nil:
			return env.Items, nil
		case env.WorkOrders != nil:
			return env.WorkOrders, nil
		}
	}
	return nil, ErrUnrecognizedDocument
}

func splitLines(r io.Reader) ([]json.RawMessage, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		out     []json.RawMessage
		skipped int
	)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped++
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		out = append(out, cp)
	}
	return out, skipped, scanner.Err()
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
