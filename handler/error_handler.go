package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/requestid"
)

// ErrorPageParams is the data of a full error page.
type ErrorPageParams struct {
	StatusCode int
	Message    string
	RequestID  string
}

// ErrorToastParams is the data of a Datastar error toast.
type ErrorToastParams struct {
	Message   string
	Type      string // "warning" or "error"
	RequestID string
}

type ErrorHandlerConfig struct {
	ErrorPage  func(ErrorPageParams) templ.Component
	ErrorToast func(ErrorToastParams) templ.Component
	// ToastTarget defaults to "#toasts".
	ToastTarget string
	ToastMode   datastar.ElementPatchMode
}

// ErrorInfo is an error classified for display.
type ErrorInfo struct {
	StatusCode int
	Message    string
	Type       string
	LogLevel   slog.Level
}

// ClassifyError derives status and message from err. Unknown errors are
// 500s with a generic message.
func ClassifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    "Something went wrong. Please try again.",
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Message = http.StatusText(httpErr.Code)
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		info.StatusCode = http.StatusBadRequest
		info.Message = valErr.Error()
	}

	info.Type = "error"
	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.Type = "warning"
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewErrorHandler logs errors and renders a page, or a toast for Datastar
// requests.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toasts"
	}
	if cfg.ToastMode == "" {
		cfg.ToastMode = PatchPrepend
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		requestID := requestid.FromContext(r.Context())
		info := ClassifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.Component("error_handler"),
			logger.RequestID(requestID),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		if IsDataStar(r) {
			if cfg.ErrorToast == nil {
				return
			}
			resp := Templ(cfg.ErrorToast(ErrorToastParams{
				Message:   info.Message,
				Type:      info.Type,
				RequestID: requestID,
			}), WithTarget(cfg.ToastTarget), WithPatchMode(cfg.ToastMode))
			if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
				log.ErrorContext(r.Context(), "failed to render error toast", logger.Error(renderErr))
			}
			return
		}

		if cfg.ErrorPage == nil {
			http.Error(ctx.ResponseWriter(), info.Message, info.StatusCode)
			return
		}
		resp := TemplWithStatus(cfg.ErrorPage(ErrorPageParams{
			StatusCode: info.StatusCode,
			Message:    info.Message,
			RequestID:  requestID,
		}), info.StatusCode)
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error page", logger.Error(renderErr))
		}
	}
}
