package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"choromap/internal/catalog"
	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/logger"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/store"
	"choromap/internal/workspace"
)

var errPersistenceDisabled = errors.New("api: persistence disabled")

// MaxBodyBytes：上传体积上限（边界文件可能较大）
var MaxBodyBytes int64 = 64 << 20

// errorBody：统一错误返回结构
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// 文档注释：错误到状态码的映射
// 背景：致命输入错误是类型化的（FormatError / MissingIdentifierError / UnsupportedProjectionError），前端按 error 字段区分提示。
// 约束：未识别的错误一律 500，不向外暴露内部细节以外的信息。
func statusFor(err error) (int, string) {
	var fe *geo.FormatError
	var me *geo.MissingIdentifierError
	var pe *projection.UnsupportedProjectionError
	var ie *election.InputError
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, "format_error"
	case errors.As(err, &me):
		return http.StatusBadRequest, "missing_identifier"
	case errors.As(err, &pe):
		return http.StatusBadRequest, "unsupported_projection"
	case errors.As(err, &ie),
		errors.Is(err, workspace.ErrInvalidSettings),
		errors.Is(err, render.ErrUnknownTheme),
		errors.Is(err, render.ErrUnknownMode),
		errors.Is(err, render.ErrExportSize),
		errors.Is(err, projection.ErrInvalidSize),
		errors.Is(err, election.ErrEmptyCandidateID),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, workspace.ErrStaleLoad):
		return http.StatusConflict, "stale_load"
	case errors.Is(err, workspace.ErrNoGeography), errors.Is(err, render.ErrEmptyScene):
		return http.StatusConflict, "no_geography"
	case errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, election.ErrCandidateNotFound),
		errors.Is(err, catalog.ErrUnknownMap),
		errors.Is(err, store.ErrProjectNotFound),
		errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errPersistenceDisabled):
		return http.StatusServiceUnavailable, "persistence_disabled"
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge, "too_large"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		logger.L().Error("api_error", "path", r.URL.Path, "err", err)
	} else {
		logger.L().Debug("api_reject", "path", r.URL.Path, "code", code, "err", err)
	}
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
}

var errBadRequest = errors.New("api: bad request")

// decodeJSON：请求体解码，失败归为 invalid_input
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	b, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
