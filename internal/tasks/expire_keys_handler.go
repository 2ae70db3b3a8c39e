package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/domain/settings"
	"go.uber.org/zap"
)

// KeyExpireSweepHandler rewrites lapsed keys to their terminal stored
// status. Lazy evaluation on the read path already keeps lapsed keys from
// downloading; the sweep keeps listings and exports honest between reads,
// and applies the auto-revoke policy when it is enabled.
type KeyExpireSweepHandler struct {
	keys      key.Repository
	settings  settings.Repository
	batchSize int
	logger    *zap.Logger
}

func NewKeyExpireSweepHandler(keys key.Repository, settingsRepo settings.Repository, batchSize int, logger *zap.Logger) *KeyExpireSweepHandler {
	return &KeyExpireSweepHandler{
		keys:      keys,
		settings:  settingsRepo,
		batchSize: batchSize,
		logger:    logger.Named("KeyExpireSweepHandler"),
	}
}

func (h *KeyExpireSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeKeyExpireSweep {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p KeyExpireSweepPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal expire sweep payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v", err)
	}

	target := key.StatusExpired
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			h.logger.Error("Failed to load settings for expire sweep", zap.Error(err))
			return fmt.Errorf("settings load error: %w", err)
		}
		cfg = settings.Defaults()
	}
	if cfg.AutoRevokeExpired {
		target = key.StatusRevoked
	}

	h.logger.Info("Running key expiration sweep", zap.String("target_status", string(target)))

	now := time.Now().UTC()
	var total int64
	for {
		n, err := h.keys.ExpireDue(ctx, now, target, h.batchSize)
		if err != nil {
			h.logger.Error("Expire sweep batch failed", zap.Error(err))
			return fmt.Errorf("repository error during expire sweep: %w", err)
		}
		total += n
		if n < int64(h.batchSize) {
			break
		}
	}

	h.logger.Info("Key expiration sweep finished", zap.Int64("keys_updated", total))
	return nil
}
