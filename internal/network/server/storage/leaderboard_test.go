package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestLeaderboard(t *testing.T) (*Leaderboard, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return NewLeaderboard(client), mr
}

func TestLeaderboard_RecordRoundResult_NewPlayer(t *testing.T) {
	t.Parallel()

	lb, mr := newTestLeaderboard(t)
	defer mr.Close()
	ctx := context.Background()

	err := lb.RecordRoundResult(ctx, "p1", "Player1", true)
	assert.NoError(t, err)

	stats, err := lb.GetPlayerStats(ctx, "p1")
	assert.NoError(t, err)
	assert.Equal(t, "p1", stats.PlayerID)
	assert.Equal(t, 1, stats.RoundsPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.NotZero(t, stats.CreatedAt)
}

func TestLeaderboard_RecordRoundResult_StreakReset(t *testing.T) {
	t.Parallel()

	lb, mr := newTestLeaderboard(t)
	defer mr.Close()
	ctx := context.Background()

	// Two wins then a loss
	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", false))

	stats, err := lb.GetPlayerStats(ctx, "p1")
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.RoundsPlayed)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 2, stats.MaxWinStreak)
}

func TestLeaderboard_TopPlayers(t *testing.T) {
	t.Parallel()

	lb, mr := newTestLeaderboard(t)
	defer mr.Close()
	ctx := context.Background()

	// p1 wins twice, p2 once, p3 never
	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p2", "Player2", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p3", "Player3", false))

	entries, err := lb.TopPlayers(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)

	assert.Equal(t, "p1", entries[0].PlayerID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[0].Wins)
	assert.InDelta(t, 100.0, entries[0].WinRate, 0.01)

	assert.Equal(t, "p2", entries[1].PlayerID)
	assert.Equal(t, 1, entries[1].Wins)

	assert.Equal(t, "p3", entries[2].PlayerID)
	assert.Equal(t, 0, entries[2].Wins)
	assert.InDelta(t, 0.0, entries[2].WinRate, 0.01)
}

func TestLeaderboard_TopPlayers_Limit(t *testing.T) {
	t.Parallel()

	lb, mr := newTestLeaderboard(t)
	defer mr.Close()
	ctx := context.Background()

	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p2", "Player2", true))

	entries, err := lb.TopPlayers(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLeaderboard_GetPlayerRank(t *testing.T) {
	t.Parallel()

	lb, mr := newTestLeaderboard(t)
	defer mr.Close()
	ctx := context.Background()

	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p1", "Player1", true))
	assert.NoError(t, lb.RecordRoundResult(ctx, "p2", "Player2", true))

	rank, err := lb.GetPlayerRank(ctx, "p1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = lb.GetPlayerRank(ctx, "p2")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = lb.GetPlayerRank(ctx, "p3")
	assert.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}
