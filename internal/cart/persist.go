package cart

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"go.uber.org/multierr"
)

// persistAsync writes state in the background. Writes for older versions are
// skipped once a newer version has been saved.
func (s *Store) persistAsync(ctx context.Context, state State, version uint64) {
	payload, err := json.Marshal(state)
	if err != nil {
		s.logg.Error(ctx, "encode cart state", err)
		return
	}

	base := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		s.persistMu.Lock()
		defer s.persistMu.Unlock()
		if version <= s.persistedVer {
			return
		}

		if err := s.saveWithRetry(base, string(payload)); err != nil {
			s.metrics.IncPersist("failed")
			logCtx := s.logg.WithFields(base, map[string]any{"cart_key": s.key, "cart_version": version})
			s.logg.Warn(logCtx, err.Error())
			return
		}
		s.persistedVer = version
	}()
}

func (s *Store) saveWithRetry(ctx context.Context, payload string) error {
	first := s.saveOnce(ctx, payload)
	if first == nil {
		s.metrics.IncPersist("ok")
		return nil
	}
	second := s.saveOnce(ctx, payload)
	if second == nil {
		s.metrics.IncPersist("retried")
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, multierr.Combine(first, second), "save cart state")
}

func (s *Store) saveOnce(ctx context.Context, payload string) error {
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	return s.kv.Save(ctx, s.key, payload)
}
