package contextkeys

type contextKey string

const (
	// BackendKey хранит backend.Handle процесса, которому пересылается запрос.
	BackendKey contextKey = "Backend"
	// RequestIDKey хранит идентификатор запроса для логов.
	RequestIDKey contextKey = "RequestID"
)
