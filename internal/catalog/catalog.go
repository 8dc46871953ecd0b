// 包 catalog：内置地图库（边界文件目录 + 规范化结果缓存）
package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"choromap/internal/projection"
)

var ErrUnknownMap = errors.New("catalog: unknown map")

// Category：地图分类
type Category string

const (
	CategoryCountry   Category = "country"
	CategoryContinent Category = "continent"
	CategoryWorld     Category = "world"
	CategoryRegion    Category = "region"
)

// MapConfig：一张可加载的地图
type MapConfig struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Filename    string          `json:"filename"`
	Projection  projection.Name `json:"projection"`
	Center      *[2]float64     `json:"center,omitempty"`
	Scale       float64         `json:"scale,omitempty"`
	Description string          `json:"description,omitempty"`
	// KeepResults：切换到该地图时保留已有结果（美国州图与默认选举数据配套）
	KeepResults bool `json:"keepResults,omitempty"`
}

func center(lon, lat float64) *[2]float64 { return &[2]float64{lon, lat} }

var builtin = []MapConfig{
	{ID: "usa-states", Name: "United States", Category: CategoryCountry, Filename: "usa-states.geojson", Projection: projection.AlbersUSA, Description: "US States with electoral data support", KeepResults: true},
	{ID: "world-countries", Name: "World Countries", Category: CategoryWorld, Filename: "world-countries.geojson", Projection: projection.EqualEarth, Description: "All countries of the world"},
	{ID: "europe", Name: "Europe", Category: CategoryContinent, Filename: "europe.geojson", Projection: projection.Mercator, Center: center(10, 50), Scale: 600, Description: "European countries"},
	{ID: "africa", Name: "Africa", Category: CategoryContinent, Filename: "africa-countries.geojson", Projection: projection.Mercator, Center: center(20, 0), Scale: 400, Description: "African countries"},
	{ID: "asia", Name: "Asia", Category: CategoryContinent, Filename: "asia-countries.geojson", Projection: projection.Mercator, Center: center(100, 30), Scale: 350, Description: "Asian countries"},
	{ID: "south-america", Name: "South America", Category: CategoryContinent, Filename: "south-america-countries.geojson", Projection: projection.Mercator, Center: center(-60, -15), Scale: 450, Description: "South American countries"},
	{ID: "north-america", Name: "North America", Category: CategoryContinent, Filename: "north-america-countries.geojson", Projection: projection.Albers, Center: center(-100, 45), Scale: 500, Description: "North American countries"},
	{ID: "oceania", Name: "Oceania", Category: CategoryContinent, Filename: "oceania-countries.geojson", Projection: projection.Mercator, Center: center(135, -25), Scale: 500, Description: "Oceania countries including Australia and Pacific islands"},
}

// Builtin：内置地图列表副本
func Builtin() []MapConfig {
	out := make([]MapConfig, len(builtin))
	copy(out, builtin)
	return out
}

// 文档注释：扫描地图目录中的额外边界文件
// 背景：运维可直接把 .geojson/.topojson 放进 MAPS_DIR；未在内置列表中的文件以文件名作为 ID，归入 region 分类。
// 约束：目录不存在时返回空；与内置文件名重复的跳过；结果按 ID 排序。
func discover(dir string, known map[string]bool) []MapConfig {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []MapConfig
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		lower := strings.ToLower(name)
		var ext string
		for _, e := range []string{".geojson", ".topojson", ".json"} {
			if strings.HasSuffix(lower, e) {
				ext = e
				break
			}
		}
		if ext == "" || known[name] {
			continue
		}
		id := strings.TrimSuffix(name, name[len(name)-len(ext):])
		out = append(out, MapConfig{
			ID:         id,
			Name:       strings.ReplaceAll(id, "-", " "),
			Category:   CategoryRegion,
			Filename:   name,
			Projection: projection.Mercator,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) path(m MapConfig) string { return filepath.Join(c.dir, filepath.Base(m.Filename)) }
