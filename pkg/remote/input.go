package remote

import (
	"fmt"
	"net/url"
	"strings"
)

// InputType は入力の種類を表す
type InputType int

const (
	InputTypeLocal InputType = iota
	InputTypeURL
)

// supportedSchemes はafsで取得できるURLスキーム
var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
	"s3":    true,
	"gs":    true,
	"mem":   true,
}

// ParsedInput はパースされた入力を表す
type ParsedInput struct {
	Type   InputType
	Scheme string // URL用
	URL    string // URL用
	Path   string // ローカルパス用
}

// IsURL は入力がスキーム付きのURLかどうかを返す
func IsURL(input string) bool {
	i := strings.Index(input, "://")
	if i <= 0 {
		return false
	}
	for _, r := range input[:i] {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// ParseInput は入力文字列を自動判別してパース
func ParseInput(input string) (*ParsedInput, error) {
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}
	if IsURL(input) {
		return parseURL(input)
	}
	return &ParsedInput{
		Type: InputTypeLocal,
		Path: input,
	}, nil
}

func parseURL(input string) (*ParsedInput, error) {
	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %q: %w", input, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if !supportedSchemes[scheme] {
		return nil, fmt.Errorf("unsupported URL scheme %q: %s", u.Scheme, input)
	}
	if scheme != "file" && u.Host == "" {
		return nil, fmt.Errorf("URL has no host: %s", input)
	}
	return &ParsedInput{
		Type:   InputTypeURL,
		Scheme: scheme,
		URL:    input,
	}, nil
}
