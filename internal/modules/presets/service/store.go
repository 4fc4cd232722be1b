package service

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"trade_engine/internal/models"
)

const (
	keyDefault    = "default"
	keySymbols    = "symbols"
	keyIndicators = "additionalindicators"
)

// Store resolves presets per symbol. Resolution order: file override for the
// symbol, then the built-in tuned preset, then the file default.
type Store struct {
	mu      sync.RWMutex
	path    string
	base    models.Preset
	symbols map[string]models.Preset
}

// NewStore returns a store holding only the built-in presets.
func NewStore() *Store {
	return &Store{
		base:    models.DefaultPreset(),
		symbols: make(map[string]models.Preset),
	}
}

// Load reads a presets file. A missing file yields the built-in presets.
func Load(path string) (*Store, error) {
	s := NewStore()
	s.path = path
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the file the store was loaded from.
func (s *Store) Reload() error {
	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read presets")
	}

	base, err := Merge(models.DefaultPreset(), v.GetStringMap(keyDefault))
	if err != nil {
		return errors.Wrap(err, "default preset")
	}

	symbols := make(map[string]models.Preset)
	for sym, raw := range v.GetStringMap(keySymbols) {
		sym = strings.ToUpper(sym)
		settings, err := cast.ToStringMapE(raw)
		if err != nil {
			return errors.Wrapf(err, "preset %s", sym)
		}
		p, err := Merge(builtin(base, sym), settings)
		if err != nil {
			return errors.Wrapf(err, "preset %s", sym)
		}
		symbols[sym] = p
	}

	s.mu.Lock()
	s.base, s.symbols = base, symbols
	s.mu.Unlock()
	return nil
}

func (s *Store) For(symbol string) models.Preset {
	symbol = strings.ToUpper(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.symbols[symbol]; ok {
		return p.Clone()
	}
	return builtin(s.base, symbol)
}

// Symbols lists symbols with an explicit or built-in preset.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for sym := range s.symbols {
		seen[sym] = true
	}
	for sym := range models.Presets {
		seen[sym] = true
	}
	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func builtin(base models.Preset, symbol string) models.Preset {
	p := base.Clone()
	if np, ok := models.Presets[symbol]; ok && np.Apply != nil {
		np.Apply(&p)
	}
	return p
}

// Merge applies the keys present in settings onto a copy of p. Keys are
// matched case-insensitively. An additionalIndicators map replaces the whole
// toggle set.
func Merge(p models.Preset, settings map[string]any) (models.Preset, error) {
	p = p.Clone()
	if len(settings) == 0 {
		return p, nil
	}

	rest := make(map[string]any, len(settings))
	for k, v := range settings {
		if strings.EqualFold(k, keyIndicators) {
			toggles, err := cast.ToStringMapBoolE(v)
			if err != nil {
				return p, errors.Wrap(err, "additionalIndicators")
			}
			p.Indicators = make(models.Toggles, len(toggles))
			for name, on := range toggles {
				ind, ok := models.ParseIndicatorName(name)
				if !ok {
					return p, errors.Errorf("unknown indicator %q", name)
				}
				p.Indicators[ind] = on
			}
			continue
		}
		rest[k] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, errors.Wrap(err, "decoder")
	}
	if err := dec.Decode(rest); err != nil {
		return p, errors.Wrap(err, "decode preset")
	}
	return p, nil
}
