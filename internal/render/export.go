package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"choromap/internal/geo"
	"choromap/internal/projection"

	svg "github.com/ajstarks/svgo"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	ErrEmptyScene = errors.New("render: scene has no geography")
	ErrExportSize = errors.New("render: export size out of range")
)

// 导出尺寸上限，避免一次请求分配过大画布
const MaxExportSide = 8192

// 文档注释：导出场景
// 背景：导出总是使用恒等视图（与屏幕上的平移缩放无关），按输出尺寸重新拟合同一地理包围盒。
// 约束：Fitted 非空时以其包围盒重新拟合；为空时按 Projection 名称现场拟合。
type Scene struct {
	Geography  *geo.Geography
	Styles     map[string]Style
	Projection projection.Name
	Fitted     *projection.Fitted
	Padding    float64
	Background string
	Labels     bool
}

func (s Scene) fit(width, height int) (*projection.Fitted, error) {
	if s.Geography == nil {
		return nil, ErrEmptyScene
	}
	if width <= 0 || height <= 0 || width > MaxExportSide || height > MaxExportSide {
		return nil, fmt.Errorf("%w: %dx%d (1..%d)", ErrExportSize, width, height, MaxExportSide)
	}
	size := projection.Size{Width: float64(width), Height: float64(height)}
	if s.Fitted != nil {
		return s.Fitted.WithSize(size, s.Padding)
	}
	return projection.Fit(s.Projection, s.Geography, size, s.Padding)
}

// 屏幕坐标路径片段；投影放置失败的点会把一条环切成多段
type segment struct {
	pts    [][2]float64
	closed bool
}

func trace(f *projection.Fitted, g geo.Geometry) []segment {
	var out []segment
	emit := func(ring []geo.Point, closed bool) {
		var cur segment
		cur.closed = closed
		for _, p := range ring {
			x, y, ok := f.Project(p.Lon, p.Lat)
			if !ok {
				if len(cur.pts) > 1 {
					cur.closed = false
					out = append(out, cur)
				}
				cur = segment{}
				continue
			}
			cur.pts = append(cur.pts, [2]float64{x, y})
		}
		if len(cur.pts) > 1 {
			out = append(out, cur)
		}
	}
	for _, l := range g.Lines {
		emit(l, false)
	}
	for _, poly := range g.Polygons {
		for _, r := range poly.Rings {
			emit(r, true)
		}
	}
	return out
}

func (s Scene) styleFor(id string) Style {
	if st, ok := s.Styles[id]; ok {
		return st
	}
	return Style{FillColor: Election.NoData, StrokeColor: Election.Stroke, StrokeWidth: Election.StrokeWidth, Opacity: 1, NoData: true}
}

var (
	faceOnce sync.Once
	faceFont *truetype.Font
	faceErr  error
)

func labelFace(size float64) (font.Face, error) {
	faceOnce.Do(func() {
		faceFont, faceErr = truetype.Parse(goregular.TTF)
	})
	if faceErr != nil {
		return nil, faceErr
	}
	if size <= 0 {
		size = Election.TextSize
	}
	return truetype.NewFace(faceFont, &truetype.Options{Size: size}), nil
}

// 文档注释：栅格导出（PNG）
// 背景：逐区域按输入顺序填充与描边，多边形使用奇偶填充规则保留洞；标签绘制在代表点处居中。
// 约束：背景缺省为白色；颜色无法解析时退回 noData 灰。
func RenderPNG(w io.Writer, s Scene, width, height int) error {
	f, err := s.fit(width, height)
	if err != nil {
		return err
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(parseColor(s.Background, color.White, 1))
	dc.Clear()
	dc.SetFillRuleEvenOdd()
	dc.SetLineJoinRound()
	noData := parseColor(Election.NoData, color.Gray{Y: 0xe0}, 1)

	for i := range s.Geography.Regions {
		r := &s.Geography.Regions[i]
		st := s.styleFor(r.ID)
		segs := trace(f, r.Geometry)
		for _, sg := range segs {
			dc.NewSubPath()
			dc.MoveTo(sg.pts[0][0], sg.pts[0][1])
			for _, p := range sg.pts[1:] {
				dc.LineTo(p[0], p[1])
			}
			if sg.closed {
				dc.ClosePath()
			}
		}
		if len(r.Geometry.Polygons) > 0 {
			dc.SetColor(parseColor(st.FillColor, noData, st.Opacity))
			dc.FillPreserve()
		}
		dc.SetColor(parseColor(st.StrokeColor, color.White, 1))
		dc.SetLineWidth(st.StrokeWidth)
		dc.Stroke()

		for _, p := range r.Geometry.Points {
			if x, y, ok := f.Project(p.Lon, p.Lat); ok {
				dc.DrawCircle(x, y, 3)
				dc.SetColor(parseColor(st.FillColor, noData, st.Opacity))
				dc.Fill()
			}
		}
	}
	if s.Labels {
		if err := drawLabels(dc, f, s); err != nil {
			return err
		}
	}
	return dc.EncodePNG(w)
}

func drawLabels(dc *gg.Context, f *projection.Fitted, s Scene) error {
	faces := map[float64]font.Face{}
	for i := range s.Geography.Regions {
		r := &s.Geography.Regions[i]
		st := s.styleFor(r.ID)
		if st.LabelText == "" {
			continue
		}
		pt, ok := r.RepresentativePoint()
		if !ok {
			continue
		}
		x, y, ok := f.Project(pt.Lon, pt.Lat)
		if !ok {
			continue
		}
		face, ok := faces[st.LabelSize]
		if !ok {
			var err error
			if face, err = labelFace(st.LabelSize); err != nil {
				return err
			}
			faces[st.LabelSize] = face
		}
		dc.SetFontFace(face)
		dc.SetColor(parseColor(st.LabelColor, color.Black, 1))
		dc.DrawStringAnchored(st.LabelText, x, y, 0.5, 0.5)
	}
	return nil
}

// 文档注释：矢量导出（SVG）
// 背景：与 PNG 使用同一拟合与路径切分；每个区域一个 g（data-id 携带区域 ID，title 为名称），内含 path。
// 约束：圆点与标签坐标取整像素；路径坐标保留两位小数。
func RenderSVG(w io.Writer, s Scene, width, height int) error {
	f, err := s.fit(width, height)
	if err != nil {
		return err
	}
	bg := s.Background
	if _, ok := parseHex(bg); !ok {
		bg = "#ffffff"
	}
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(width, height, 0, 0, width, height)
	canvas.Rect(0, 0, width, height, attr("fill", bg))
	canvas.Group()
	for i := range s.Geography.Regions {
		r := &s.Geography.Regions[i]
		st := s.styleFor(r.ID)
		d := pathData(trace(f, r.Geometry))
		fill := st.FillColor
		if len(r.Geometry.Polygons) == 0 {
			fill = "none"
		}
		canvas.Group(attr("data-id", r.ID))
		canvas.Title(r.Name)
		if d != "" {
			canvas.Path(d,
				attr("fill", fill), attr("fill-opacity", num(st.Opacity)), attr("fill-rule", "evenodd"),
				attr("stroke", st.StrokeColor), attr("stroke-width", num(st.StrokeWidth)))
		}
		for _, p := range r.Geometry.Points {
			if x, y, ok := f.Project(p.Lon, p.Lat); ok {
				canvas.Circle(px(x), px(y), 3, attr("fill", st.FillColor))
			}
		}
		canvas.Gend()
	}
	if s.Labels {
		for i := range s.Geography.Regions {
			r := &s.Geography.Regions[i]
			st := s.styleFor(r.ID)
			if st.LabelText == "" {
				continue
			}
			pt, ok := r.RepresentativePoint()
			if !ok {
				continue
			}
			if x, y, ok := f.Project(pt.Lon, pt.Lat); ok {
				canvas.Text(px(x), px(y), st.LabelText,
					attr("text-anchor", "middle"), attr("dominant-baseline", "middle"),
					attr("font-size", num(st.LabelSize)), attr("font-weight", "bold"),
					attr("fill", st.LabelColor), attr("pointer-events", "none"))
			}
		}
	}
	canvas.Gend()
	canvas.End()
	_, err = buf.WriteTo(w)
	return err
}

// attr：name="value"，值转义后交给 svgo 原样输出
func attr(name, value string) string { return name + `="` + escape(value) + `"` }

func px(v float64) int { return int(math.Round(v)) }

func pathData(segs []segment) string {
	var b strings.Builder
	for _, sg := range segs {
		for i, p := range sg.pts {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(num(p[0]))
			b.WriteByte(',')
			b.WriteString(num(p[1]))
		}
		if sg.closed {
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

func escape(s string) string { return svgEscaper.Replace(s) }

// parseColor：#rgb / #rrggbb / #rrggbbaa，叠加透明度；失败返回 fallback
func parseColor(s string, fallback color.Color, opacity float64) color.Color {
	c, ok := parseHex(s)
	if !ok {
		return fallback
	}
	if opacity > 0 && opacity < 1 {
		c.A = uint8(math.Round(float64(c.A) * opacity))
	}
	return c
}

func parseHex(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	alpha := uint8(0xff)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		alpha, s = uint8(a), s[:7]
	}
	if len(s) != 4 && len(s) != 7 {
		return color.NRGBA{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, true
}
