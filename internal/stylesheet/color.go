package stylesheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	rgbRe     = regexp.MustCompile(`^rgba?\(\s*(\d+(?:\.\d+)?)[\s,]+(\d+(?:\.\d+)?)[\s,]+(\d+(?:\.\d+)?)(?:[\s,/]+([\d.]+%?))?\s*\)$`)
	hexRe     = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	leadIntRe = regexp.MustCompile(`^-?\d+`)
)

// RGBToHex converts a computed color such as "rgb(59, 130, 246)" into
// "#3b82f6". Fully transparent colors and unparseable input report false.
func RGBToHex(color string) (string, bool) {
	color = strings.ToLower(strings.TrimSpace(color))
	if hexRe.MatchString(color) {
		return color, true
	}

	m := rgbRe.FindStringSubmatch(color)
	if m == nil {
		return "", false
	}

	if alpha := m[4]; alpha != "" {
		a, err := parseAlpha(alpha)
		if err != nil || a == 0 {
			return "", false
		}
	}

	var channels [3]int
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return "", false
		}
		channels[i] = clamp(int(f + 0.5))
	}

	return fmt.Sprintf("#%02x%02x%02x", channels[0], channels[1], channels[2]), true
}

// LeadingInt parses the integer prefix of a computed length, like
// parseInt("16.5px") in a browser.
func LeadingInt(value string) (int, bool) {
	s := leadIntRe.FindString(strings.TrimSpace(value))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}

	return n, true
}

func parseAlpha(s string) (float64, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)

		return f / 100, err
	}

	return strconv.ParseFloat(s, 64)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}

	return n
}
