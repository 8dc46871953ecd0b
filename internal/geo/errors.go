package geo

import "fmt"

// FormatError：输入既不是要素集合也不是可识别的拓扑编码
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "geo: unrecognized format: " + e.Reason }

// MissingIdentifierError：第 Index 个要素没有任何可用的 ID 字段
type MissingIdentifierError struct {
	Index int
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("geo: feature %d has no usable identifier", e.Index)
}

func formatErr(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}
