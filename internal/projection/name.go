package projection

import (
	"fmt"
	"strings"
)

// Name：受支持的投影（封闭集合）
type Name string

const (
	Mercator   Name = "mercator"
	Albers     Name = "albers"
	AlbersUSA  Name = "albersUsa"
	EqualEarth Name = "equalEarth"
)

// Names：全部受支持的投影，顺序固定
func Names() []Name { return []Name{Mercator, Albers, AlbersUSA, EqualEarth} }

// UnsupportedProjectionError：未知投影名称
type UnsupportedProjectionError struct {
	Name string
}

func (e *UnsupportedProjectionError) Error() string {
	return fmt.Sprintf("projection: unsupported projection %q", e.Name)
}

// Parse：名称大小写不敏感，返回规范拼写
func Parse(s string) (Name, error) {
	t := strings.TrimSpace(s)
	for _, n := range Names() {
		if strings.EqualFold(t, string(n)) {
			return n, nil
		}
	}
	return "", &UnsupportedProjectionError{Name: s}
}

func rawFor(n Name) (raw, error) {
	switch n {
	case Mercator:
		return mercator{}, nil
	case Albers:
		return newAlbers(), nil
	case AlbersUSA:
		return newAlbersUSA(), nil
	case EqualEarth:
		return equalEarth{}, nil
	}
	return nil, &UnsupportedProjectionError{Name: string(n)}
}
