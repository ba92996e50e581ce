// Package validation checks URLs that leave the process: the address handed
// to the system browser and the runtime script sources written into sandbox
// documents.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// dangerousChars could break out of a shell argument or an HTML attribute.
var dangerousChars = []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r", " "}

// ValidateURL accepts absolute http(s) URLs free of shell and markup
// metacharacters.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme)
	}

	if err := checkChars(rawURL); err != nil {
		return err
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	return nil
}

// ValidateScriptSource accepts an http(s) URL or a path on the serving host.
func ValidateScriptSource(src string) error {
	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		return checkChars(src)
	}

	return ValidateURL(src)
}

func checkChars(s string) error {
	for _, char := range dangerousChars {
		if strings.Contains(s, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	return nil
}
