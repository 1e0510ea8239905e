package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/internal/services"
)

const maxAuditBody = 2000

var sensitiveKeys = []string{"password", "token", "secret", "apikey", "api_key"}

// AuditLog records write operations (POST/PUT/PATCH/DELETE) to system_logs.
// Anonymous writes are only recorded for the auth endpoints.
func AuditLog(logs *services.SystemLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}

		body := captureBody(c)

		c.Next()

		fullPath := c.FullPath()
		if !IsAuthenticated(c) && !strings.HasPrefix(fullPath, "/api/auth/") {
			return
		}

		status := c.Writer.Status()
		module, action := parseRouteInfo(fullPath, method)

		extra := map[string]interface{}{
			"method": method,
			"path":   c.Request.URL.Path,
			"status": status,
		}
		if body != "" {
			extra["body"] = body
		}

		logs.Record(c.Request.Context(), &services.AuditEntry{
			Level:     auditLevel(status),
			Module:    module,
			Action:    action,
			Message:   formatAuditMessage(GetUserID(c), method, c.Request.URL.Path, status),
			UserID:    GetUserID(c),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra:     extra,
		})
	}
}

// captureBody reads a JSON body and restores it for the handler. Multipart
// uploads are not captured.
func captureBody(c *gin.Context) string {
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), "application/json") {
		return ""
	}

	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	snippet := maskSensitiveFields(raw)
	if len(snippet) > maxAuditBody {
		snippet = snippet[:maxAuditBody] + "...[truncated]"
	}
	return snippet
}

// maskSensitiveFields replaces the values of credential-like keys at any depth.
// Bodies that are not valid JSON are dropped.
func maskSensitiveFields(raw []byte) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "[unparseable body]"
	}
	masked, err := json.Marshal(maskValue(v))
	if err != nil {
		return ""
	}
	return string(masked)
}

func maskValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			if isSensitiveKey(k) {
				val[k] = "***"
				continue
			}
			val[k] = maskValue(inner)
		}
		return val
	case []interface{}:
		for i := range val {
			val[i] = maskValue(val[i])
		}
		return val
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func auditLevel(status int) string {
	switch {
	case status >= 500:
		return services.LogLevelError
	case status >= 400:
		return services.LogLevelWarning
	default:
		return services.LogLevelInfo
	}
}

// parseRouteInfo derives module and action from a route pattern.
// e.g. "/api/projects/:id/status" + "PATCH" -> "Projects", "Update Status"
func parseRouteInfo(fullPath, method string) (module, action string) {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(fullPath, "/api"), "/"), "/")

	module = titleWords(segments[0])
	if module == "" {
		module = "Unknown"
	}

	var detail string
	if last := segments[len(segments)-1]; len(segments) > 1 && !strings.HasPrefix(last, ":") && !strings.HasPrefix(last, "*") {
		detail = titleWords(last)
	}

	if module == "Auth" && detail != "" {
		return module, detail
	}

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut, http.MethodPatch:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	if detail != "" {
		action += " " + detail
	}
	return module, action
}

// titleWords turns "my-projects" into "My Projects".
func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatAuditMessage(userID, method, path string, status int) string {
	who := userID
	if who == "" {
		who = "anonymous"
	}
	outcome := "OK"
	if status >= 400 {
		outcome = "Failed"
	}
	return fmt.Sprintf("[Audit] %s %s %s -> %s (%d)", who, method, path, outcome, status)
}
