package models

// ShortenRequest поля формы сокращения ссылки, которые проверяются на стороне прокси
type ShortenRequest struct {
	URL   string `json:"url" validate:"required"`
	Alias string `json:"custom_url" validate:"omitempty,alias"`
}

// ValidationError описывает ошибку проверки одного поля
type ValidationError struct {
	Field   string `json:"field"`
	Verdict string `json:"verdict,omitempty"`
	Message string `json:"message"`
}

// ValidationErrorResponse тело ответа 400 при неверной форме
type ValidationErrorResponse struct {
	Errors []ValidationError `json:"errors"`
}
