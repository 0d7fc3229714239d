package types

import (
	"strings"
	"time"
)

// TaskKind selects the table a task record lives in
type TaskKind string

const (
	KindDaily    TaskKind = "daily"
	KindWeekly   TaskKind = "weekly"
	KindPeriodic TaskKind = "periodic"
	KindEvent    TaskKind = "event"
	KindOther    TaskKind = "other"
)

// TaskKinds lists every kind in display order.
var TaskKinds = []TaskKind{KindDaily, KindWeekly, KindPeriodic, KindEvent, KindOther}

// ParseTaskKind is case-insensitive.
func ParseTaskKind(s string) (TaskKind, error) {
	k := TaskKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidTaskKind
	}
	return k, nil
}

// Valid reports whether k is one of TaskKinds.
func (k TaskKind) Valid() bool {
	for _, known := range TaskKinds {
		if k == known {
			return true
		}
	}
	return false
}

// CurrencyValue is an amount of one in-game currency
type CurrencyValue struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// TaskRecord is the progress of one task on one day in one region
type TaskRecord struct {
	Kind       TaskKind
	Date       Date
	Region     string
	Name       string
	Value      int64
	Currencies []CurrencyValue
	Notes      string
	UpdatedAt  time.Time
}

// Validate checks if the record can be stored
func (r *TaskRecord) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidTaskKind
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Region) == "" {
		return ErrEmptyRegion
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyTaskName
	}
	for _, c := range r.Currencies {
		if c.Currency == "" {
			return ErrEmptyCurrency
		}
	}
	return nil
}

// CurrencySnapshot is a region's currency balances recorded on a day
type CurrencySnapshot struct {
	ID         int64
	Date       Date
	Region     string
	Currencies []CurrencyValue
	Notes      string
	CreatedAt  time.Time
}

// Validate checks if the snapshot can be stored
func (s *CurrencySnapshot) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Region) == "" {
		return ErrEmptyRegion
	}
	for _, c := range s.Currencies {
		if c.Currency == "" {
			return ErrEmptyCurrency
		}
	}
	return nil
}

// SumCurrencies totals amounts per currency, keeping first-seen order.
func SumCurrencies(lists ...[]CurrencyValue) []CurrencyValue {
	index := make(map[string]int)
	var out []CurrencyValue
	for _, list := range lists {
		for _, c := range list {
			if i, ok := index[c.Currency]; ok {
				out[i].Amount += c.Amount
				continue
			}
			index[c.Currency] = len(out)
			out = append(out, c)
		}
	}
	return out
}
