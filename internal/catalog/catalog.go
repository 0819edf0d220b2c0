// Package catalog loads the read-only reference datasets a battle
// session is seeded from: the level item-spawn schedule, the defender
// hero roster, and the attacker roster. Datasets are loaded once per
// session creation (in practice once per process, then shared) and are
// never mutated afterwards. A missing or unparsable file is not fatal;
// the dependent feature is simply skipped.
package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	LevelFile     = "LevelPVP.json"
	HeroesFile    = "DefenderHeroes.json"
	AttackersFile = "Attackers.json"
)

var ErrUnknownAttacker = errors.New("unknown attacker id")

type LevelItem struct {
	Index   int     `json:"i"`
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	HP      int     `json:"hp"`
	Count   int     `json:"count"`
	Spacing float64 `json:"sp"`
	// Time is seconds from battle start.
	Time float64 `json:"time"`
}

type Level struct {
	Items []LevelItem `json:"items"`
}

type Hero struct {
	HeroName string `json:"heroName"`
	HP       int    `json:"hp"`
	Damage   int    `json:"damage"`
}

type HeroRoster struct {
	Heroes []Hero `json:"heroes"`
}

type Attacker struct {
	AttackerID  int  `json:"attackerId"`
	IsBoss      bool `json:"isBoss"`
	HP          int  `json:"hp"`
	Damage      int  `json:"damage"`
	DamageToBox int  `json:"damageToBox"`
}

type AttackerRoster struct {
	Attackers []Attacker `json:"attackers"`
}

// Catalog holds the three datasets. Any of the fields may be nil when
// its file was absent; lookups on a nil dataset fail explicitly.
type Catalog struct {
	Level     *Level
	Heroes    *HeroRoster
	Attackers *AttackerRoster
}

// Load reads all three datasets, probing extraDir (when non-empty), the
// working-directory config/ dir, and the executable-relative config/
// dir, in that order.
func Load(extraDir string, log *zap.Logger) *Catalog {
	c := &Catalog{}

	var level Level
	if loadInto(LevelFile, extraDir, &level, log) {
		c.Level = &level
		log.Info("loaded level schedule", zap.Int("items", len(level.Items)))
	}

	var heroes HeroRoster
	if loadInto(HeroesFile, extraDir, &heroes, log) {
		c.Heroes = &heroes
		log.Info("loaded defender heroes", zap.Int("heroes", len(heroes.Heroes)))
	}

	var attackers AttackerRoster
	if loadInto(AttackersFile, extraDir, &attackers, log) {
		c.Attackers = &attackers
		log.Info("loaded attackers", zap.Int("attackers", len(attackers.Attackers)))
	}

	return c
}

// Attacker resolves an archetype by id. Nil-roster and unknown-id both
// come back as ErrUnknownAttacker so spawns never proceed on a miss.
func (c *Catalog) Attacker(id int) (Attacker, error) {
	if c == nil || c.Attackers == nil {
		return Attacker{}, ErrUnknownAttacker
	}
	for _, a := range c.Attackers.Attackers {
		if a.AttackerID == id {
			return a, nil
		}
	}
	return Attacker{}, ErrUnknownAttacker
}

func candidatePaths(name, extraDir string) []string {
	paths := []string{}
	if extraDir != "" {
		paths = append(paths, filepath.Join(extraDir, name))
	}
	paths = append(paths, filepath.Join("config", name))
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "config", name))
	}
	return paths
}

func loadInto(name, extraDir string, v any, log *zap.Logger) bool {
	for _, path := range candidatePaths(name, extraDir) {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(raw, v); err != nil {
			log.Warn("catalog file unparsable", zap.String("path", path), zap.Error(err))
			return false
		}
		return true
	}
	log.Warn("catalog file not found", zap.String("file", name))
	return false
}
