package app

import (
	"sort"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
)

// Scoreboard keeps every player's best score and fans snapshots out to subscribers.
type Scoreboard struct {
	now         func() time.Time
	mu          sync.RWMutex
	players     map[string]*domain.Player
	subscribers map[chan domain.Scoreboard]struct{}
}

func NewScoreboard() *Scoreboard {
	return NewScoreboardWithClock(time.Now)
}

// NewScoreboardWithClock allows deterministic timestamps in tests.
func NewScoreboardWithClock(now func() time.Time) *Scoreboard {
	return &Scoreboard{
		now:         now,
		players:     make(map[string]*domain.Player),
		subscribers: make(map[chan domain.Scoreboard]struct{}),
	}
}

// Join registers a player with a zero score, or refreshes the display name.
func (b *Scoreboard) Join(playerID, displayName string) domain.Scoreboard {
	b.mu.Lock()
	defer b.mu.Unlock()

	if player, ok := b.players[playerID]; ok {
		player.DisplayName = displayName
	} else {
		b.players[playerID] = &domain.Player{
			PlayerID:    playerID,
			DisplayName: displayName,
			LastUpdated: b.now(),
		}
	}
	return b.broadcastLocked()
}

// Record stores score if it beats the player's best. The second return value
// reports whether the board changed.
func (b *Scoreboard) Record(playerID, displayName string, score int) (domain.Scoreboard, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	player, ok := b.players[playerID]
	if !ok {
		player = &domain.Player{PlayerID: playerID, DisplayName: displayName, LastUpdated: b.now()}
		b.players[playerID] = player
	} else if score <= player.BestScore {
		return b.snapshotLocked(), false
	}
	if score > player.BestScore {
		player.BestScore = score
		player.LastUpdated = b.now()
	}
	return b.broadcastLocked(), true
}

// Snapshot returns the current ordering without notifying subscribers.
func (b *Scoreboard) Snapshot() domain.Scoreboard {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Subscribe returns a channel that receives every board change, starting with
// the current state. The caller must invoke cancel to release it.
func (b *Scoreboard) Subscribe() (<-chan domain.Scoreboard, func()) {
	ch := make(chan domain.Scoreboard, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := b.snapshotLocked()
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Scoreboard) broadcastLocked() domain.Scoreboard {
	board := b.snapshotLocked()
	for ch := range b.subscribers {
		select {
		case ch <- board:
		default:
			// slow reader: drop its oldest update
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
	return board
}

func (b *Scoreboard) snapshotLocked() domain.Scoreboard {
	entries := make([]domain.ScoreboardEntry, 0, len(b.players))
	for _, player := range b.players {
		entries = append(entries, domain.ScoreboardEntry{
			PlayerID:    player.PlayerID,
			DisplayName: player.DisplayName,
			BestScore:   player.BestScore,
		})
	}

	// best score first, then whoever reached it earlier, then name
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		pi := b.players[entries[i].PlayerID]
		pj := b.players[entries[j].PlayerID]
		if !pi.LastUpdated.Equal(pj.LastUpdated) {
			return pi.LastUpdated.Before(pj.LastUpdated)
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	return domain.Scoreboard{
		Entries:   entries,
		UpdatedAt: b.now(),
	}
}
