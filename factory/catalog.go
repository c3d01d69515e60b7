/*
Package factory provides JSON/YAML to Go catalog conversion.

PURPOSE:
  Converts catalog definitions (producers, upgrades, weather) into a
  validated game.Catalog. Balancing the economy then needs no code change:
  edit the file, restart the server.

FORMATS:
  JSON and YAML share one schema; LoadFile picks the decoder by extension
  (.json, .yaml, .yml).

YAML SCHEMA:
  producers:
    - item_id: "0"
      name: Solar Panel
      type: solar
      base_price: "1000"
      base_kwh: "2.4"
      base_efficiency: 60
  upgrades:
    - id: sp_0
      name: Better Batteries
      cost: "750"
      category: efficiency
      producer_bound: "0"
      effects:
        - {type: kwh_add, target: "0", value: 1}
  weather:
    - name: Heatwave
      chance: 0.1
      length_days: 2
      effects:
        - affects: producer_type
          producer_type: solar
          mods: [{type: kwh_mult, value: "1.5"}]

KEY FEATURES:
  - Amounts stay strings so large prices never pass through float64
  - Sets sensible defaults (category from effects, weather length)
  - Runs game.Catalog.Validate on the result

USAGE:
  f := factory.NewCatalogFactory()
  cat, err := f.LoadFile("catalog.yaml")
  g := game.New(game.WithCatalog(cat))

SEE ALSO:
  - game/catalog.go: Catalog type, DefaultCatalog, Validate
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warp/gridtycoon/game"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// CatalogDef is the file representation of a catalog.
type CatalogDef struct {
	Producers []ProducerDef `json:"producers" yaml:"producers"`
	Upgrades  []UpgradeDef  `json:"upgrades" yaml:"upgrades"`
	Weather   []WeatherDef  `json:"weather,omitempty" yaml:"weather,omitempty"`
}

// ProducerDef represents a producer template.
type ProducerDef struct {
	ItemID         string  `json:"item_id" yaml:"item_id"`
	Name           string  `json:"name" yaml:"name"`
	Icon           string  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Type           string  `json:"type" yaml:"type"` // solar, fossil, nuclear, ...
	BasePrice      string  `json:"base_price" yaml:"base_price"`
	BaseKwh        string  `json:"base_kwh" yaml:"base_kwh"`
	BaseEfficiency float64 `json:"base_efficiency" yaml:"base_efficiency"` // 0-100
	Risk           float64 `json:"risk,omitempty" yaml:"risk,omitempty"`
	ResearchLocked bool    `json:"research_locked,omitempty" yaml:"research_locked,omitempty"`
	Requires       string  `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// UpgradeDef represents a purchasable upgrade.
type UpgradeDef struct {
	ID            string      `json:"id" yaml:"id"`
	Name          string      `json:"name" yaml:"name"`
	Icon          string      `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description   string      `json:"description,omitempty" yaml:"description,omitempty"`
	Cost          string      `json:"cost" yaml:"cost"`
	Category      string      `json:"category,omitempty" yaml:"category,omitempty"` // Default derived from effects
	Requires      []string    `json:"requires,omitempty" yaml:"requires,omitempty"`
	ProducerBound string      `json:"producer_bound,omitempty" yaml:"producer_bound,omitempty"`
	Effects       []EffectDef `json:"effects" yaml:"effects"`
}

// EffectDef represents one upgrade effect.
type EffectDef struct {
	Type       string  `json:"type" yaml:"type"`
	Target     string  `json:"target,omitempty" yaml:"target,omitempty"` // itemId, empty = all
	Value      float64 `json:"value" yaml:"value"`
	Percentage bool    `json:"percentage,omitempty" yaml:"percentage,omitempty"`
}

// WeatherDef represents a weather kind in the daily roll.
type WeatherDef struct {
	Name       string             `json:"name" yaml:"name"`
	Chance     float64            `json:"chance" yaml:"chance"`
	LengthDays int                `json:"length_days,omitempty" yaml:"length_days,omitempty"` // 0 = one day
	Effects    []WeatherEffectDef `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// WeatherEffectDef represents a scoped set of mods.
type WeatherEffectDef struct {
	Affects      string   `json:"affects" yaml:"affects"` // global, producer, producer_type
	ProducerType string   `json:"producer_type,omitempty" yaml:"producer_type,omitempty"`
	Producer     string   `json:"producer,omitempty" yaml:"producer,omitempty"`
	Mods         []ModDef `json:"mods" yaml:"mods"`
}

// ModDef represents a single modifier operation.
type ModDef struct {
	Type  string `json:"type" yaml:"type"` // kwh_add, kwh_mult, cr_add, cr_mult
	Value string `json:"value" yaml:"value"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts catalog definitions to game catalogs.
type CatalogFactory struct{}

// NewCatalogFactory creates a new catalog factory.
func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseJSON parses a JSON document into a validated catalog.
func (f *CatalogFactory) ParseJSON(data []byte) (*game.Catalog, error) {
	var def CatalogDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return f.FromDef(def)
}

// ParseYAML parses a YAML document into a validated catalog.
func (f *CatalogFactory) ParseYAML(data []byte) (*game.Catalog, error) {
	var def CatalogDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return f.FromDef(def)
}

// LoadFile reads a catalog file, choosing the format by extension.
func (f *CatalogFactory) LoadFile(path string) (*game.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return f.ParseJSON(data)
	case ".yaml", ".yml":
		return f.ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}

// FromDef converts a CatalogDef to a validated game.Catalog.
func (f *CatalogFactory) FromDef(def CatalogDef) (*game.Catalog, error) {
	cat := &game.Catalog{
		Producers: make([]game.ProducerTemplate, 0, len(def.Producers)),
		Upgrades:  make([]game.Upgrade, 0, len(def.Upgrades)),
		Weather:   make([]game.Weather, 0, len(def.Weather)),
	}

	for _, pd := range def.Producers {
		cat.Producers = append(cat.Producers, game.ProducerTemplate{
			ItemID:         pd.ItemID,
			Name:           pd.Name,
			Icon:           pd.Icon,
			BasePrice:      pd.BasePrice,
			CurrentPrice:   pd.BasePrice,
			Risk:           pd.Risk,
			Type:           game.ProducerType(pd.Type),
			Stats:          game.BaseStats{BaseKwh: pd.BaseKwh, BaseEfficiency: pd.BaseEfficiency},
			ResearchLocked: pd.ResearchLocked,
			Requires:       pd.Requires,
		})
	}

	for _, ud := range def.Upgrades {
		u, err := parseUpgrade(ud)
		if err != nil {
			return nil, err
		}
		cat.Upgrades = append(cat.Upgrades, u)
	}

	for _, wd := range def.Weather {
		cat.Weather = append(cat.Weather, parseWeather(wd))
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// ToDef converts a catalog back to its file representation.
func (f *CatalogFactory) ToDef(cat *game.Catalog) CatalogDef {
	var def CatalogDef
	for _, p := range cat.Producers {
		def.Producers = append(def.Producers, ProducerDef{
			ItemID:         p.ItemID,
			Name:           p.Name,
			Icon:           p.Icon,
			Type:           string(p.Type),
			BasePrice:      p.BasePrice,
			BaseKwh:        p.Stats.BaseKwh,
			BaseEfficiency: p.Stats.BaseEfficiency,
			Risk:           p.Risk,
			ResearchLocked: p.ResearchLocked,
			Requires:       p.Requires,
		})
	}
	for _, u := range cat.Upgrades {
		ud := UpgradeDef{
			ID:            u.ID,
			Name:          u.Name,
			Icon:          u.Icon,
			Description:   u.Description,
			Cost:          u.Cost,
			Category:      string(u.Category),
			Requires:      u.Requires,
			ProducerBound: u.ProducerBound,
		}
		for _, e := range u.Effects {
			ud.Effects = append(ud.Effects, EffectDef{
				Type: string(e.Type), Target: e.Target, Value: e.Value, Percentage: e.IsPercentage,
			})
		}
		def.Upgrades = append(def.Upgrades, ud)
	}
	for _, w := range cat.Weather {
		wd := WeatherDef{Name: w.Name, Chance: w.Chance}
		if w.Length != nil {
			wd.LengthDays = *w.Length
		}
		for _, e := range w.Effects {
			ed := WeatherEffectDef{
				Affects:      string(e.Affects),
				ProducerType: string(e.ProducerType),
				Producer:     e.ProducerTarget,
			}
			for _, m := range e.Mods {
				ed.Mods = append(ed.Mods, ModDef{Type: string(m.Type), Value: m.Value})
			}
			wd.Effects = append(wd.Effects, ed)
		}
		def.Weather = append(def.Weather, wd)
	}
	return def
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseUpgrade(ud UpgradeDef) (game.Upgrade, error) {
	u := game.Upgrade{
		ID:            ud.ID,
		Name:          ud.Name,
		Icon:          ud.Icon,
		Description:   ud.Description,
		Cost:          ud.Cost,
		Requires:      append([]string{}, ud.Requires...),
		ProducerBound: ud.ProducerBound,
	}
	for _, ed := range ud.Effects {
		u.Effects = append(u.Effects, game.UpgradeEffect{
			Type:         game.EffectType(ed.Type),
			Target:       ed.Target,
			Value:        ed.Value,
			IsPercentage: ed.Percentage,
		})
	}

	if ud.Category == "" {
		u.Category = defaultCategory(u.Effects)
		return u, nil
	}
	c, err := parseCategory(ud.Category)
	if err != nil {
		return game.Upgrade{}, &game.CatalogError{Kind: "upgrade", ID: ud.ID, Reason: err.Error()}
	}
	u.Category = c
	return u, nil
}

func parseCategory(s string) (game.UpgradeCategory, error) {
	switch c := game.UpgradeCategory(s); c {
	case game.CategoryWorker, game.CategoryKwh, game.CategoryGlobal, game.CategoryEfficiency:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// defaultCategory derives a category from the first effect.
func defaultCategory(effects []game.UpgradeEffect) game.UpgradeCategory {
	if len(effects) == 0 {
		return game.CategoryGlobal
	}
	switch effects[0].Type {
	case game.EffectWageEfficiency, game.EffectWorkerCompetence, game.EffectInsanityFactor,
		game.EffectHappinessFactor, game.EffectQuitFactor:
		return game.CategoryWorker
	case game.EffectKwhAdd, game.EffectKwhMult:
		if effects[0].Target == "" {
			return game.CategoryGlobal
		}
		return game.CategoryKwh
	default:
		return game.CategoryEfficiency
	}
}

func parseWeather(wd WeatherDef) game.Weather {
	w := game.Weather{Name: wd.Name, Chance: wd.Chance}
	if wd.LengthDays > 0 {
		days := wd.LengthDays
		w.Length = &days
	}
	for _, ed := range wd.Effects {
		e := game.WeatherEffect{
			Affects:        parseScope(ed.Affects),
			ProducerType:   game.ProducerType(ed.ProducerType),
			ProducerTarget: ed.Producer,
		}
		for _, md := range ed.Mods {
			e.Mods = append(e.Mods, game.Mod{Type: game.ModType(md.Type), Value: md.Value})
		}
		w.Effects = append(w.Effects, e)
	}
	return w
}

func parseScope(s string) game.Scope {
	switch s {
	case "producer":
		return game.ScopeProducer
	case "producer_type", "producerType":
		return game.ScopeProducerType
	default:
		return game.ScopeGlobal
	}
}
