// Package aliasguard повторяет на сервере проверку псевдонима, которую
// форма делает в браузере, и не пропускает к бэкенду неверные запросы.
package aliasguard

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/issafronov/shortener-front/internal/app/alias"
	"github.com/issafronov/shortener-front/internal/app/models"
	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("alias", validateAlias); err != nil {
		panic(err)
	}
	return v
}

func validateAlias(fl validator.FieldLevel) bool {
	return alias.Check(fl.Field().String()) == alias.Valid
}

// Options задаёт, какой запрос проверять
type Options struct {
	// Path путь, на который отправляется форма
	Path string
	// AliasField имя поля с псевдонимом
	AliasField string
}

// Validate проверяет форму и возвращает список ошибок по полям
func Validate(req models.ShortenRequest, aliasField string) []models.ValidationError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.ValidationError{{Field: "form", Message: err.Error()}}
	}

	out := make([]models.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Alias":
			v := alias.Check(req.Alias)
			out = append(out, models.ValidationError{Field: aliasField, Verdict: v.String(), Message: v.Message()})
		case "URL":
			out = append(out, models.ValidationError{Field: "url", Message: "Please enter a URL"})
		default:
			out = append(out, models.ValidationError{Field: fe.Field(), Message: fe.Error()})
		}
	}
	return out
}

// Middleware проверяет POST-запросы формы на opts.Path. Тело запроса
// восстанавливается, поэтому бэкенд получает его без изменений.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != opts.Path || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
			r.Body.Close()
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			if len(raw) > maxBodySize {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))

			req, ok, err := decode(r.Header.Get("Content-Type"), raw, opts.AliasField)
			if err != nil {
				writeErrors(w, []models.ValidationError{{Field: "form", Message: "Malformed request body"}})
				return
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if errs := Validate(req, opts.AliasField); len(errs) > 0 {
				logger.Log.Info("rejected shorten request",
					zap.String("request_id", logger.RequestID(r.Context())),
					zap.Any("errors", errs))
				writeErrors(w, errs)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// decode достаёт поля формы; ok == false для типов тела, которые не проверяются
func decode(contentType string, raw []byte, aliasField string) (models.ShortenRequest, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return models.ShortenRequest{}, true, err
		}
		return models.ShortenRequest{
			URL:   strings.TrimSpace(values.Get("url")),
			Alias: strings.TrimSpace(values.Get(aliasField)),
		}, true, nil
	case "application/json":
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return models.ShortenRequest{}, true, err
		}
		str := func(k string) string {
			s, _ := fields[k].(string)
			return strings.TrimSpace(s)
		}
		return models.ShortenRequest{URL: str("url"), Alias: str(aliasField)}, true, nil
	default:
		return models.ShortenRequest{}, false, nil
	}
}

func writeErrors(w http.ResponseWriter, errs []models.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(models.ValidationErrorResponse{Errors: errs}); err != nil {
		logger.Log.Error("failed to write validation errors", zap.Error(err))
	}
}
