package middleware

import (
	"bountyBuddy/internal/presentation"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

const (
	UserIDHeader = "X-User-ID"

	userIdKey contextKey = "user_id"
	localeKey contextKey = "locale"
)

// Identity берёт идентификатор пользователя из заголовка X-User-ID, который выставляет шлюз.
// Запрос без заголовка проходит анонимно, некорректное значение отклоняется с 401
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		userId, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userId <= 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":      "UNAUTHORIZED",
				"message":    "Некорректный идентификатор пользователя",
				"request_id": GetRequestID(r.Context()),
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userId)))
	})
}

func WithUserID(ctx context.Context, userId int64) context.Context {
	noteUserID(ctx, userId)
	return context.WithValue(ctx, userIdKey, userId)
}

// GetUserID возвращает id пользователя и false для анонимного запроса
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIdKey).(int64)
	return id, ok
}

// Locale выбирает язык подписей по ?lang= и Accept-Language
func Locale(catalog *presentation.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := catalog.Resolve(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", cfg.Locale.String())
			next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), cfg)))
		})
	}
}

func WithLocale(ctx context.Context, cfg presentation.Config) context.Context {
	return context.WithValue(ctx, localeKey, cfg)
}

// GetLocale возвращает конфигурацию подписей; ok=false, если Locale не подключён
func GetLocale(ctx context.Context) (presentation.Config, bool) {
	cfg, ok := ctx.Value(localeKey).(presentation.Config)
	return cfg, ok
}
