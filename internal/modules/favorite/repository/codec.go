package repository

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// maxSafeInteger bounds ids written as floating point numbers (2^53)
const maxSafeInteger = 1 << 53

// Decode parses a persisted blob. The blob must be a JSON array; elements that
// are not {id: integer, name: string, imageUrl: string}, and repeated ids after
// the first, are dropped and counted instead of failing the read.
func Decode(data []byte) (*domain.LoadResult, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, oops.With("cause", err.Error(), "size", len(data)).Wrap(apperrors.ErrCorruptFavorites)
	}

	valid := lo.FilterMap(elements, func(raw json.RawMessage, _ int) (domain.Entry, bool) {
		return decodeEntry(raw)
	})
	entries := lo.UniqBy(valid, func(e domain.Entry) int64 {
		return e.ID
	})

	return &domain.LoadResult{
		Entries: domain.Collection(entries),
		Dropped: len(elements) - len(entries),
	}, nil
}

// Encode serializes c compactly; an empty collection is written as [].
func Encode(c domain.Collection) ([]byte, error) {
	if c == nil {
		c = domain.Collection{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, oops.With("count", len(c), "context", "failed to marshal favorites").Wrap(err)
	}

	return data, nil
}

func decodeEntry(raw json.RawMessage) (domain.Entry, bool) {
	var fields map[string]any

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return domain.Entry{}, false
	}

	id, ok := integer(fields["id"])
	if !ok {
		return domain.Entry{}, false
	}
	name, ok := fields["name"].(string)
	if !ok {
		return domain.Entry{}, false
	}
	imageURL, ok := fields["imageUrl"].(string)
	if !ok {
		return domain.Entry{}, false
	}

	return domain.Entry{ID: id, Name: name, ImageURL: imageURL}, true
}

func integer(v any) (int64, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}

	if id, err := num.Int64(); err == nil {
		return id, true
	}

	// 42.0 and 4.2e1 are still integers
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxSafeInteger {
		return 0, false
	}

	return int64(f), true
}
