package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"

	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/secure"
	"github.com/systmms/kvsync/internal/vault"
)

const indent = "    "

// ReadFile loads and validates a whole transfer file. Every failure is
// malformed input.
func ReadFile(path string) ([]vault.Record, error) {
	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}

	records := make([]vault.Record, 0, len(entries))
	for i, raw := range entries {
		rec, err := decodeEntry(raw)
		if err != nil {
			return nil, dserrors.E(fmt.Sprintf("parse %s: record %d", path, i), dserrors.KindMalformedInput, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// readEntries reads path through a secure buffer and splits the top-level
// array without checking its elements.
func readEntries(path string) ([]json.RawMessage, error) {
	sb, err := secure.ReadFile(path)
	if err != nil {
		return nil, dserrors.E("read "+path, dserrors.KindMalformedInput, dserrors.SimplifyError(err))
	}
	defer sb.Destroy()

	buf, err := sb.Open()
	if err != nil {
		return nil, dserrors.E("read "+path, dserrors.KindMalformedInput, err)
	}
	defer buf.Destroy()

	data := buf.Bytes()
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, dserrors.E("parse "+path, dserrors.KindMalformedInput, fmt.Errorf("file is empty"))
	}
	if err := ValidateDocument(data); err != nil {
		return nil, dserrors.E("parse "+path, dserrors.KindMalformedInput, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, dserrors.E("parse "+path, dserrors.KindMalformedInput, err)
	}
	return entries, nil
}

func decodeEntry(raw json.RawMessage) (vault.Record, error) {
	if err := ValidateEntry(raw); err != nil {
		return vault.Record{}, err
	}
	var rec vault.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return vault.Record{}, err
	}
	return rec, nil
}

// WriteFile replaces path with records as a 4-space indented JSON array.
func WriteFile(path string, records []vault.Record) error {
	if records == nil {
		records = []vault.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := secure.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return dserrors.SimplifyError(fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}
