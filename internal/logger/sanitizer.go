package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Sanitizer 負責過濾日誌中的敏感資訊
//
// 預設只遮罩連線資訊中的憑證（server_url 的 userinfo、query token 等）。
// 掃描路徑是本工具的主要日誌內容，因此家目錄遮罩需以 WithHomeRedaction 開啟。
type Sanitizer struct {
	mu    sync.RWMutex
	rules []SanitizeRule
}

// SanitizeRule 單一過濾規則
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// SanitizerOption configures a Sanitizer
type SanitizerOption func(*Sanitizer)

// WithHomeRedaction masks the user name in home directory paths
func WithHomeRedaction() SanitizerOption {
	return func(s *Sanitizer) {
		s.rules = append(s.rules, homeRules...)
	}
}

var credentialRules = []SanitizeRule{
	{regexp.MustCompile(`(?i)\b(wss?|https?)://[^/\s:@]+:[^/\s@]+@`), "$1://***:***@"},
	{regexp.MustCompile(`(?i)([?&](?:token|access_token|api[_-]?key|password)=)[^&\s]+`), "${1}***"},
	{regexp.MustCompile(`(?i)bearer\s+\S+`), "bearer ***"},
}

var homeRules = []SanitizeRule{
	{regexp.MustCompile(`(?i)\b([A-Z]):\\Users\\[^\\\s]+`), `${1}:\Users\***`},
	{regexp.MustCompile(`/home/[^/\s]+`), "/home/***"},
	{regexp.MustCompile(`/Users/[^/\s]+`), "/Users/***"},
}

// keys whose values are masked outright
var secretKeys = []string{"password", "passwd", "token", "secret", "api_key", "apikey", "cookie", "authorization"}

// NewSanitizer 建立 sanitizer
func NewSanitizer(opts ...SanitizerOption) *Sanitizer {
	s := &Sanitizer{rules: append([]SanitizeRule(nil), credentialRules...)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize applies every rule to a message
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apply(input)
}

func (s *Sanitizer) apply(input string) string {
	for _, r := range s.rules {
		input = r.Pattern.ReplaceAllString(input, r.Replacement)
	}
	return input
}

// SanitizeArgs masks secret-keyed values and applies the rules to other strings.
// Non-string values other than errors pass through untouched.
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		var v string
		switch val := out[i+1].(type) {
		case string:
			v = val
		case error:
			v = val.Error()
		default:
			continue
		}
		if matchKey(key, secretKeys) {
			out[i+1] = maskValue(v)
		} else {
			out[i+1] = s.apply(v)
		}
	}
	return out
}

func matchKey(key string, keys []string) bool {
	k := strings.ToLower(key)
	for _, candidate := range keys {
		if strings.Contains(k, candidate) {
			return true
		}
	}
	return false
}

// maskValue 遮蔽值（長值保留首尾各 1 字元）
func maskValue(value string) string {
	switch {
	case len(value) <= 2:
		return "***"
	case len(value) <= 8:
		return fmt.Sprintf("%c***", value[0])
	default:
		return fmt.Sprintf("%c***%c", value[0], value[len(value)-1])
	}
}

// AddRule 新增自訂過濾規則
func (s *Sanitizer) AddRule(pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	s.mu.Lock()
	s.rules = append(s.rules, SanitizeRule{Pattern: re, Replacement: replacement})
	s.mu.Unlock()
	return nil
}
