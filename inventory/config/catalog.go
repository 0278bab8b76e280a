package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"inventory-orchestrator/inventory/slots/domain"
)

//go:embed default_placements.yaml
var defaultPlacements []byte

type catalogFile struct {
	Categories map[string]categoryEntry `yaml:"categories"`
	Placements []placementEntry         `yaml:"placements"`
}

type categoryEntry struct {
	Gap *time.Duration `yaml:"gap"`
}

type placementEntry struct {
	Key      string `yaml:"key"`
	Format   string `yaml:"format"`
	Category string `yaml:"category"`
	UnitID   string `yaml:"unit_id"`
	// RefreshInterval ausente usa o padrão; 0s desliga.
	RefreshInterval *time.Duration    `yaml:"refresh_interval"`
	Attrs           map[string]string `yaml:"attrs"`
}

// CatalogDefaults completa o que o YAML não informa.
type CatalogDefaults struct {
	RefreshInterval time.Duration
	OverlayGap      time.Duration
}

// Catalog é a configuração dos placements. Implementa domain.ConfigSource.
// É imutável depois de carregado.
type Catalog struct {
	placements map[domain.Key]domain.ItemConfig
	gaps       map[domain.Category]time.Duration
}

var _ domain.ConfigSource = (*Catalog)(nil)

var knownFormats = map[domain.Format]bool{
	domain.FormatBanner:             true,
	domain.FormatNative:             true,
	domain.FormatInterstitial:       true,
	domain.FormatAppOpen:            true,
	domain.FormatNativeFullscreen:   true,
	domain.FormatReward:             true,
	domain.FormatRewardInterstitial: true,
}

// LoadCatalog lê o catálogo do arquivo; com path vazio usa o catálogo embutido.
func LoadCatalog(path string, defaults CatalogDefaults) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return ParseCatalog(defaultPlacements, defaults)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read placements: %w", err)
	}
	return ParseCatalog(data, defaults)
}

func ParseCatalog(data []byte, defaults CatalogDefaults) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse placements: %w", err)
	}

	c := &Catalog{
		placements: make(map[domain.Key]domain.ItemConfig, len(file.Placements)),
		gaps:       map[domain.Category]time.Duration{domain.CategoryFullscreen: defaults.OverlayGap},
	}

	for name, cat := range file.Categories {
		if cat.Gap == nil {
			continue
		}
		if *cat.Gap < 0 {
			return nil, fmt.Errorf("category %q: gap must be >= 0", name)
		}
		c.gaps[domain.Category(name)] = *cat.Gap
	}

	for i, p := range file.Placements {
		cfg, err := p.itemConfig(defaults)
		if err != nil {
			return nil, fmt.Errorf("placement #%d: %w", i, err)
		}
		if _, dup := c.placements[cfg.Key]; dup {
			return nil, fmt.Errorf("placement #%d: duplicate key %q", i, cfg.Key)
		}
		c.placements[cfg.Key] = cfg
	}
	return c, nil
}

func (p placementEntry) itemConfig(defaults CatalogDefaults) (domain.ItemConfig, error) {
	key := strings.TrimSpace(p.Key)
	if key == "" {
		return domain.ItemConfig{}, fmt.Errorf("key is required")
	}
	format := domain.Format(strings.TrimSpace(p.Format))
	if !knownFormats[format] {
		return domain.ItemConfig{}, fmt.Errorf("%s: unknown format %q", key, p.Format)
	}

	cat := domain.Category(strings.TrimSpace(p.Category))
	if cat == "" {
		cat = format.DefaultCategory()
	}

	var interval time.Duration
	switch {
	case p.RefreshInterval != nil && *p.RefreshInterval < 0:
		return domain.ItemConfig{}, fmt.Errorf("%s: refresh_interval must be >= 0", key)
	case p.RefreshInterval != nil && *p.RefreshInterval > 0 && !format.IsInline():
		return domain.ItemConfig{}, fmt.Errorf("%s: refresh_interval only applies to inline formats", key)
	case p.RefreshInterval != nil:
		interval = *p.RefreshInterval
	case format.IsInline():
		interval = defaults.RefreshInterval
	}

	return domain.ItemConfig{
		Key:             domain.Key(key),
		Category:        cat,
		Format:          format,
		UnitID:          strings.TrimSpace(p.UnitID),
		RefreshInterval: interval,
		Attrs:           p.Attrs,
	}, nil
}

func (c *Catalog) Lookup(key domain.Key) (domain.ItemConfig, bool) {
	cfg, ok := c.placements[key]
	return cfg, ok
}

// Keys devolve as chaves em ordem alfabética.
func (c *Catalog) Keys() []domain.Key {
	keys := make([]domain.Key, 0, len(c.placements))
	for k := range c.placements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Gaps devolve a janela de cooldown por categoria.
func (c *Catalog) Gaps() map[domain.Category]time.Duration {
	out := make(map[domain.Category]time.Duration, len(c.gaps))
	for k, v := range c.gaps {
		out[k] = v
	}
	return out
}
