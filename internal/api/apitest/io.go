package apitest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

func readAll(r *http.Request) string {
	data, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	return string(data)
}

func newBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func withUser(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, id)
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxUserKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "JSON non valido")
		return false
	}
	return true
}
