package app

import (
	"encoding/json"
	"fmt"
	"time"

	"math-worksheet-backend/internal/domain"
)

// storedEntry keeps the scores.json layout: date is epoch milliseconds, dateString its UTC day.
type storedEntry struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Date       int64  `json:"date"`
	DateString string `json:"dateString,omitempty"`
}

// EncodeEntries serializes leaderboard entries for a snapshot.
func EncodeEntries(entries []domain.ScoreEntry) ([]byte, error) {
	stored := make([]storedEntry, 0, len(entries))
	for _, e := range entries {
		stored = append(stored, storedEntry{
			Name:       e.Name,
			Score:      e.Score,
			Date:       e.SubmittedAt.UnixMilli(),
			DateString: e.SubmittedAt.UTC().Format(domain.DateLayout),
		})
	}
	return json.Marshal(stored)
}

// DecodeEntries parses a snapshot written by EncodeEntries.
func DecodeEntries(data []byte) ([]domain.ScoreEntry, error) {
	var stored []storedEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	entries := make([]domain.ScoreEntry, 0, len(stored))
	for i, s := range stored {
		if s.Score < 0 {
			return nil, fmt.Errorf("entry %d: negative score %d", i, s.Score)
		}
		at := time.UnixMilli(s.Date).UTC()
		if s.Date == 0 && s.DateString != "" {
			day, err := time.Parse(domain.DateLayout, s.DateString)
			if err != nil {
				return nil, fmt.Errorf("entry %d: bad dateString %q", i, s.DateString)
			}
			at = day
		}
		entries = append(entries, domain.ScoreEntry{
			Name:        truncateName(s.Name),
			Score:       s.Score,
			SubmittedAt: at,
		})
	}
	return entries, nil
}
