package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botlab.dev/assistant-bot/internal/session"
)

func startGame(t *testing.T, fx *fixture, target int) {
	t.Helper()
	replies := fx.manager.Handle(context.Background(), event("1", "🎲 Игра"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgGameStart, replies[0].Text)

	sess := fx.sessions.Get("1")
	require.NotNil(t, sess.Game)
	sess.Game.Target = target
}

func TestGameHints(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()
	startGame(t, fx, 50)

	replies := fx.manager.Handle(ctx, event("1", "10"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgGameHigher, replies[0].Text)

	replies = fx.manager.Handle(ctx, event("1", "90"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgGameLower, replies[0].Text)

	assert.Equal(t, 2, fx.sessions.Get("1").Game.Attempts)
}

func TestGameNonNumericGuessKeepsGameAlive(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()
	startGame(t, fx, 50)

	replies := fx.manager.Handle(ctx, event("1", "пятьдесят"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgGameNotNumber, replies[0].Text)

	sess := fx.sessions.Get("1")
	require.NotNil(t, sess.Game)
	assert.Equal(t, 0, sess.Game.Attempts)
	assert.Equal(t, session.StateAwaitingNumberGuess, sess.State)
}

func TestGameWinClearsState(t *testing.T) {
	fx := newFixture(Responders{
		Complete: func(ctx context.Context, input string) (string, error) {
			return "обычный ответ", nil
		},
	})
	ctx := context.Background()
	startGame(t, fx, 50)

	fx.manager.Handle(ctx, event("1", "10"))
	replies := fx.manager.Handle(ctx, event("1", "50"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "2")

	sess := fx.sessions.Get("1")
	assert.Nil(t, sess.Game)
	assert.Equal(t, session.StateIdle, sess.State)

	// With no active game a number is ordinary free text again.
	replies = fx.manager.Handle(ctx, event("1", "55"))
	require.Len(t, replies, 1)
	assert.Equal(t, "обычный ответ", replies[0].Text)
}

func TestGameInterceptsFreeTextWhileActive(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()
	startGame(t, fx, 50)

	// Force IDLE with the game still attached: interception must win over
	// intent classification.
	fx.sessions.Get("1").State = session.StateIdle
	replies := fx.manager.Handle(ctx, event("1", "привет бот"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgGameNotNumber, replies[0].Text)
	assert.Empty(t, fx.store.history)
}
