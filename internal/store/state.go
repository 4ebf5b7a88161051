package store

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sweeney/fpj-maker/internal/logic"
)

// Keys of the batch record.
const (
	KeyLoaded            = "IsLoaded"
	KeyFermenting        = "IsFermenting"
	KeyMixingDone        = "IsMixingDone"
	KeyFermentationDate  = "FermentationDate"
	KeySliderPosition    = "SliderLatestPosition"
	KeyMixerPosition     = "MixerLatestPosition"
	KeyBatchID           = "BatchID"
	FermentationDateForm = "2006-01-02 15:04:05"
)

// ErrNegativeWeight is returned, without writing, for weights below zero.
var ErrNegativeWeight = errors.New("weight cannot be negative")

// WeightKey returns the record key of an ingredient's weight.
func WeightKey(ing logic.Ingredient) string {
	s := string(ing)
	if s == "" {
		return "Weight"
	}
	return strings.ToUpper(s[:1]) + s[1:] + "Weight"
}

// BatchState is the typed view of the batch record.
type BatchState struct {
	store *Store
	loc   *time.Location
}

// NewBatchState wraps s. Fermentation dates are kept in local time.
func NewBatchState(s *Store) *BatchState {
	return &BatchState{store: s, loc: time.Local}
}

// Snapshot reads the whole record.
func (b *BatchState) Snapshot() logic.Batch {
	m := b.store.all()
	batch := logic.Batch{
		ID:         decode(m, KeyBatchID, ""),
		Loaded:     decode(m, KeyLoaded, false),
		Fermenting: decode(m, KeyFermenting, false),
		MixingDone: decode(m, KeyMixingDone, false),
		Weights:    make(map[logic.Ingredient]int, len(logic.Ingredients)),
	}
	for _, ing := range logic.Ingredients {
		batch.Weights[ing] = decode(m, WeightKey(ing), 0)
	}
	if s := decode(m, KeyFermentationDate, ""); s != "" {
		t, err := time.ParseInLocation(FermentationDateForm, s, b.loc)
		if err != nil {
			log.Printf("store: bad %s %q: %v", KeyFermentationDate, s, err)
		} else {
			batch.FermentationStart = t
		}
	}
	return batch
}

// Weight returns the stored grams of ing.
func (b *BatchState) Weight(ing logic.Ingredient) int {
	return Get(b.store, WeightKey(ing), 0)
}

// SetWeight stores grams for ing. Negative values are rejected.
func (b *BatchState) SetWeight(ing logic.Ingredient, grams int) error {
	if grams < 0 {
		log.Printf("store: %s %d rejected: %v", WeightKey(ing), grams, ErrNegativeWeight)
		return fmt.Errorf("%s: %w", WeightKey(ing), ErrNegativeWeight)
	}
	return b.store.Modify(WeightKey(ing), grams)
}

func (b *BatchState) SetLoaded(v bool) error     { return b.store.Modify(KeyLoaded, v) }
func (b *BatchState) SetFermenting(v bool) error { return b.store.Modify(KeyFermenting, v) }
func (b *BatchState) SetMixingDone(v bool) error { return b.store.Modify(KeyMixingDone, v) }
func (b *BatchState) SetBatchID(id string) error { return b.store.Modify(KeyBatchID, id) }

// SetFermentationStart records when fermentation began.
func (b *BatchState) SetFermentationStart(t time.Time) error {
	return b.store.Modify(KeyFermentationDate, t.In(b.loc).Format(FermentationDateForm))
}

// SetSliderPosition records the last slider position, for information.
func (b *BatchState) SetSliderPosition(steps int) error {
	return b.store.Modify(KeySliderPosition, steps)
}

// SetMixerPosition records the last mixer position, for information.
func (b *BatchState) SetMixerPosition(pos int) error {
	return b.store.Modify(KeyMixerPosition, pos)
}

// Reset returns the record to a fresh, unloaded batch. Every key is
// attempted; the first error is returned.
func (b *BatchState) Reset() error {
	writes := []struct {
		key   string
		value any
	}{
		{KeyLoaded, false},
		{KeyFermenting, false},
		{KeyMixingDone, false},
		{KeyFermentationDate, nil},
		{KeyBatchID, ""},
	}
	for _, ing := range logic.Ingredients {
		writes = append(writes, struct {
			key   string
			value any
		}{WeightKey(ing), 0})
	}

	var first error
	for _, w := range writes {
		if err := b.store.Modify(w.key, w.value); err != nil && first == nil {
			first = err
		}
	}
	return first
}
