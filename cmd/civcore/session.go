package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/ruleset"
	"github.com/vovakirdan/civcore/internal/savefile"
	"github.com/vovakirdan/civcore/internal/storage"
	"github.com/vovakirdan/civcore/internal/turn"
	"github.com/vovakirdan/civcore/internal/world"
)

// session bundles what a command needs to work on a stored game.
type session struct {
	rules *ruleset.Rules
	codec *savefile.Codec
	store *storage.Store
}

func openSession() (*session, error) {
	rules, err := ruleset.Load(cfg.Ruleset.Path)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("session opened", "ruleset", rules.Name, "db", cfg.Storage.DBPath)
	return &session{rules: rules, codec: savefile.NewCodec(rules), store: store}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// latest decodes the most recent snapshot of a game into an engine.
func (s *session) latest(gameID string, opts turn.Options) (*turn.Engine, storage.Snapshot, error) {
	snap, err := s.store.LatestSnapshot(gameID)
	if err != nil {
		return nil, snap, fmt.Errorf("game %s: %w", gameID, err)
	}
	if snap.Ruleset != s.rules.Name {
		logger.Warn("game was saved under another ruleset", "game", gameID, "saved", snap.Ruleset, "loaded", s.rules.Name)
	}
	state, err := s.codec.Decode(snap.Data)
	if err != nil {
		return nil, snap, fmt.Errorf("game %s turn %d: %w", gameID, snap.Turn, err)
	}
	eng, err := turn.NewEngine(s.rules, state, opts)
	if err != nil {
		return nil, snap, err
	}
	return eng, snap, nil
}

// save stores the engine's current state as a snapshot.
func (s *session) save(gameID string, eng *turn.Engine) error {
	data, err := eng.Save(s.codec)
	if err != nil {
		return err
	}
	state := eng.Snapshot()
	if _, err := s.store.SaveSnapshot(gameID, state.Turn, state.Seed, s.rules.Name, data); err != nil {
		return err
	}
	logger.Debug("snapshot saved", "game", gameID, "turn", state.Turn, "bytes", len(data))
	return nil
}

// splitAssignment splits "player=value".
func splitAssignment(s string) (world.PlayerID, string, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || value == "" {
		return 0, "", fmt.Errorf("expected player=value, got %q", s)
	}
	id, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("invalid player id %q", key)
	}
	return world.PlayerID(id), value, nil
}

// parseTargets parses --target values of the form player=tech.
func parseTargets(values []string) ([]turn.SetResearchTarget, error) {
	var out []turn.SetResearchTarget
	for _, v := range values {
		id, tech, err := splitAssignment(v)
		if err != nil {
			return nil, err
		}
		out = append(out, turn.SetResearchTarget{Player: id, Tech: tech})
	}
	return out, nil
}

// parseIncome parses --income values of the form player=bulbs.
func parseIncome(values []string) (turn.StaticIncome, error) {
	out := make(turn.StaticIncome)
	for _, v := range values {
		id, amount, err := splitAssignment(v)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid income %q", amount)
		}
		out[id] += n
	}
	return out, nil
}

// parseSight parses --sight values of the form player=x,y or player=x,y,radius.
func parseSight(values []string) (turn.StaticSight, error) {
	out := make(turn.StaticSight)
	for _, v := range values {
		id, spec, err := splitAssignment(v)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(spec, ",")
		if len(parts) != 2 && len(parts) != 3 {
			return nil, fmt.Errorf("expected x,y[,radius], got %q", spec)
		}
		nums := make([]int, len(parts))
		for i, p := range parts {
			if nums[i], err = strconv.Atoi(strings.TrimSpace(p)); err != nil {
				return nil, fmt.Errorf("invalid number %q in %q", p, spec)
			}
		}
		s := turn.Sighting{At: core.C(nums[0], nums[1])}
		if len(nums) == 3 {
			if nums[2] < 0 {
				return nil, fmt.Errorf("negative sight radius in %q", spec)
			}
			s.Radius = nums[2]
		}
		out[id] = append(out[id], s)
	}
	return out, nil
}
