package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/handgame/internal/dependencies/clock"
	"github.com/mcoot/handgame/internal/dependencies/random"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/storage"
)

// Service issues and looks up player identities. A display name maps to a
// single stable user ID for as long as storage keeps it.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	// serializes find-or-create so two logins for a new name get one ID
	mu sync.Mutex
}

// New creates a new identity Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// Login returns the player for a display name, creating it on first use
func (s *Service) Login(ctx context.Context, displayName string) (*model.Player, error) {
	name, err := model.NormalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.storage.GetPlayerByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	player := &model.Player{
		ID:          model.PlayerID(s.random.UUID()),
		DisplayName: name,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		s.logger.Error("failed to save player",
			slog.String("player_id", string(player.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("player created",
		slog.String("player_id", string(player.ID)),
		slog.String("display_name", name),
	)
	return player, nil
}

// GetPlayer looks up a player by ID
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}
