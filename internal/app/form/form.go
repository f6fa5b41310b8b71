// Package form описывает поведение формы сокращения ссылки: проверку перед
// отправкой, живую подсказку под полем псевдонима, предложение псевдонима
// и копирование короткой ссылки.
package form

import (
	"context"
	"strings"

	"github.com/issafronov/shortener-front/internal/app/alias"
	"github.com/issafronov/shortener-front/internal/app/notify"
	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
)

// Идентификаторы элементов страницы
const (
	FormID          = "url-form"
	URLInputID      = "url-input"
	AliasInputID    = "alias-input"
	CustomToggleID  = "customUrlToggle"
	CopyButtonID    = "copy-btn"
	ShortURLInputID = "short-url-input"
	AlertsID        = "alerts-container"
	AliasFeedbackID = "custom-url-feedback"
)

const (
	MsgURLRequired = "Please enter a URL"
	MsgCopied      = "Copied to clipboard!"
	MsgCopyFailed  = "Failed to copy URL"
)

const (
	iconDanger       = "fas fa-exclamation-triangle"
	iconSuccess      = "fas fa-check-circle"
	classFeedbackErr = "form-text text-danger mt-1"
	classFeedbackOK  = "form-text text-success mt-1"
)

// Clipboard буфер обмена, в который копируется короткая ссылка
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Feedback содержимое строки подсказки под полем псевдонима.
// Нулевое значение означает пустую подсказку.
type Feedback struct {
	Class   string
	Icon    string
	Message string
	Verdict alias.Verdict
}

// Empty сообщает, что подсказка очищена
func (f Feedback) Empty() bool {
	return f.Message == ""
}

// SubmitResult итог попытки отправить форму
type SubmitResult struct {
	Allowed bool
	// Focus идентификатор поля, на которое переводится фокус при ошибке
	Focus   string
	Verdict alias.Verdict
}

// Form состояние формы сокращения ссылки
type Form struct {
	URL         string
	Alias       string
	CustomAlias bool
	ShortURL    string

	// Feedback последняя показанная подсказка
	Feedback Feedback

	alerts    *notify.Center
	suggester alias.Suggester
}

// New создаёт форму, уведомления которой попадают в alerts
func New(alerts *notify.Center) *Form {
	return &Form{alerts: alerts}
}

// WithSuggester подменяет генератор предложений
func (f *Form) WithSuggester(s alias.Suggester) *Form {
	f.suggester = s
	return f
}

// Submit проверяет форму перед отправкой. При ошибке отправка блокируется
// и показывается уведомление.
func (f *Form) Submit() SubmitResult {
	if strings.TrimSpace(f.URL) == "" {
		f.alerts.Show(notify.Danger, MsgURLRequired)
		return SubmitResult{Focus: URLInputID}
	}
	if !f.CustomAlias {
		return SubmitResult{Allowed: true}
	}

	v := alias.Validate(f.Alias, true)
	if v != alias.Valid {
		f.alerts.Show(notify.Danger, v.Message())
		return SubmitResult{Focus: AliasInputID, Verdict: v}
	}
	return SubmitResult{Allowed: true}
}

// AliasInput обновляет подсказку после каждого изменения поля псевдонима
func (f *Form) AliasInput() Feedback {
	v := alias.Check(f.Alias)
	switch v {
	case alias.Empty:
		f.Feedback = Feedback{}
	case alias.Valid:
		f.Feedback = Feedback{Class: classFeedbackOK, Icon: iconSuccess, Message: v.Hint(), Verdict: v}
	default:
		f.Feedback = Feedback{Class: classFeedbackErr, Icon: iconDanger, Message: v.Hint(), Verdict: v}
	}
	return f.Feedback
}

// URLBlur предлагает псевдоним, когда поле ссылки теряет фокус, режим
// собственного псевдонима включён, а псевдоним ещё не введён.
func (f *Form) URLBlur() bool {
	if !f.CustomAlias || strings.TrimSpace(f.Alias) != "" {
		return false
	}
	suggestion, ok := f.suggester.Suggest(f.URL)
	if !ok {
		logger.Log.Debug("could not generate alias suggestion", zap.String("url", f.URL))
		return false
	}
	f.Alias = suggestion
	f.AliasInput()
	return true
}

// Copy копирует короткую ссылку. Ошибка копирования не меняет состояние формы.
func (f *Form) Copy(ctx context.Context, cb Clipboard) error {
	if f.ShortURL == "" {
		return nil
	}
	if err := cb.WriteText(ctx, f.ShortURL); err != nil {
		logger.Log.Error("failed to copy short url", zap.Error(err))
		f.alerts.Show(notify.Danger, MsgCopyFailed)
		return err
	}
	f.alerts.Show(notify.Success, MsgCopied)
	return nil
}
