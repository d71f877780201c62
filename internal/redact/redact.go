// Package redact strips credentials, tokens, addresses, paths and query text
// from strings before they are logged or returned in error responses.
package redact

import (
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
)

// rule replaces every match of pattern with replacement. Rules run in order,
// each on the output of the previous one.
type rule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// rules is read-only after package initialisation.
var rules = []rule{
	{
		name:        "stack_trace",
		pattern:     regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		replacement: "[STACK_TRACE_REDACTED]",
	},
	{
		name:        "jwt",
		pattern:     regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		replacement: RedactedJWTPlaceholder,
	},
	// userinfo in any URL: postgres://, smtp://, kafka://, ...
	{
		name:        "url_credentials",
		pattern:     regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s/@]+@`),
		replacement: RedactedCredentialPlaceholder,
	},
	// reset links and DSNs carry secrets as query parameters
	{
		name:        "query_secret",
		pattern:     regexp.MustCompile(`(?i)([?&](?:token|password|secret|sslpassword|api_key)=)[^&\s]+`),
		replacement: "${1}" + RedactionPlaceholder,
	},
	{
		name:        "password",
		pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s\[]{3,}`),
		replacement: RedactedCredentialPlaceholder,
	},
	{
		name:        "api_key",
		pattern:     regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		replacement: RedactedKeyPlaceholder,
	},
	{
		name:        "aws_key",
		pattern:     regexp.MustCompile(`(AKIA|AccessKey(Id)?)([^a-zA-Z0-9])?[A-Z0-9]{8,}`),
		replacement: RedactedKeyPlaceholder,
	},
	{
		name:        "email",
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		replacement: RedactedEmailPlaceholder,
	},
	{
		name:        "unix_path",
		pattern:     regexp.MustCompile(`(/[\w.-]+){2,}`),
		replacement: RedactedPathPlaceholder,
	},
	{
		name:        "windows_path",
		pattern:     regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`),
		replacement: RedactedPathPlaceholder,
	},
	{
		name: "sql",
		pattern: regexp.MustCompile(
			`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|GRANT)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE|SCHEMA|VIEW)(?:[\s\w,*()='"]+)?`,
		),
		replacement: "[REDACTED_SQL]",
	},
	{
		name:        "line_number",
		pattern:     regexp.MustCompile(`(?:at )?line ?\d+`),
		replacement: "[REDACTED_LINE_NUMBER]",
	},
	{
		name:        "syntax_error",
		pattern:     regexp.MustCompile(`(?i)syntax error|syntax problem|parse error`),
		replacement: "[REDACTED_SYNTAX_ERROR]",
	},
	// SMTP relays, Kafka brokers and database hosts
	{
		name: "host_port",
		pattern: regexp.MustCompile(
			`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
		),
		replacement: RedactedHostPlaceholder,
	},
	{
		name:        "file_error",
		pattern:     regexp.MustCompile(`(?i)(?:no such file|file not found|can't open|cannot open|file error)`),
		replacement: "[REDACTED_FILE_ERROR]",
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
