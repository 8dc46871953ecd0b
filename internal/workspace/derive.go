package workspace

import (
	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/warn"
)

// inputs：一次推导的全部输入；切片与指针视为不可变，修改时整体替换
type inputs struct {
	geography   *geo.Geography
	geoWarnings []warn.Warning
	roster      *election.Roster
	records     []election.ResultRecord
	settings    Settings
}

// Derived：推导结果快照
type Derived struct {
	Index      election.Index          `json:"index"`
	Aggregates election.Aggregates     `json:"aggregates"`
	Styles     map[string]render.Style `json:"styles"`
	Fitted     *projection.Fitted      `json:"-"`
	Warnings   []warn.Warning          `json:"warnings"`
	Revision   uint64                  `json:"revision"`
}

// 文档注释：推导流水线（连接 → 汇总 → 样式 → 拟合）
// 背景：任何输入替换都整体重跑，不做增量修补；区域数在数千量级，成本可接受。
// 约束：纯函数，同输入必得同输出（Revision 由调用方赋值）。
//       已加载地理数据时，汇总只统计已知区域的记录；未知区域记录保留在索引中并给出警告。
//       未加载地理数据时不拟合投影，Fitted 为 nil。
func derive(in inputs) (Derived, error) {
	var ids []string
	if in.geography != nil {
		ids = in.geography.IDs()
	}
	ix, ws := election.BuildIndex(ids, in.roster, in.records)
	ws = append(ws, election.ReferenceWarnings(in.roster, in.records, ix)...)

	counted := in.records
	if in.geography != nil {
		counted = make([]election.ResultRecord, 0, len(in.records))
		for _, r := range in.records {
			if _, ok := in.geography.Lookup(r.RegionID); ok {
				counted = append(counted, r)
			}
		}
	}
	agg := election.ComputeAggregates(in.roster, counted, in.settings.Majority)

	theme, err := render.ThemeByName(in.settings.Theme)
	if err != nil {
		return Derived{}, err
	}
	styles := render.ResolveAll(in.geography, in.settings.Mode, ix, in.roster, theme)

	var fitted *projection.Fitted
	if in.geography != nil {
		fitted, err = projection.Fit(in.settings.Projection, in.geography, in.settings.Viewport, in.settings.Padding)
		if err != nil {
			return Derived{}, err
		}
	}
	all := make([]warn.Warning, 0, len(in.geoWarnings)+len(ws))
	all = append(all, in.geoWarnings...)
	all = append(all, ws...)
	return Derived{Index: ix, Aggregates: agg, Styles: styles, Fitted: fitted, Warnings: all}, nil
}
