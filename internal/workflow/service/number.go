package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// numberSource reports the highest number already persisted for a year, so a
// restarted instance continues the sequence instead of reissuing from 000001.
type numberSource interface {
	MaxNumberForYear(ctx context.Context, year int) (string, error)
}

// numberGenerator issues human-facing application numbers of the form
// GACP-YYYY-NNNNNN. The sequence resets each calendar year and is seeded from
// the store the first time a year is seen. Uniqueness across concurrent
// instances is ultimately enforced by the unique index on the number column.
type numberGenerator struct {
	mu     sync.Mutex
	source numberSource
	year   int
	next   int
}

func newNumberGenerator(source numberSource) *numberGenerator {
	return &numberGenerator{source: source}
}

func (g *numberGenerator) Next(ctx context.Context, now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	year := now.Year()
	if year != g.year {
		last, err := g.source.MaxNumberForYear(ctx, year)
		if err != nil {
			return "", err
		}
		seq, err := sequenceOf(last)
		if err != nil {
			return "", err
		}
		g.year = year
		g.next = seq
	}
	g.next++
	return fmt.Sprintf("GACP-%04d-%06d", year, g.next), nil
}

// sequenceOf extracts the NNNNNN suffix; "" means no numbers were issued for
// the year yet.
func sequenceOf(number string) (int, error) {
	if number == "" {
		return 0, nil
	}
	i := strings.LastIndexByte(number, '-')
	if i < 0 {
		return 0, fmt.Errorf("malformed application number %q", number)
	}
	return strconv.Atoi(number[i+1:])
}
