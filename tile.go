package tilekit

import (
	"fmt"
	"strconv"
	"strings"
)

// TileID addresses one tile in a z/x/y pyramid.
type TileID struct {
	X, Y, Z int
}

func (id TileID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}

// URLTemplate expands tile IDs into URLs. Pattern may contain {x}, {y},
// {z} and {s}; {s} rotates through Subdomains so neighbouring tiles are
// spread across hosts.
type URLTemplate struct {
	Pattern    string
	Subdomains []string
}

// NewURLTemplate parses a template. At least one of {x}, {y}, {z} must
// appear, and {s} requires subdomains.
func NewURLTemplate(pattern string, subdomains ...string) (URLTemplate, error) {
	if !strings.Contains(pattern, "{x}") && !strings.Contains(pattern, "{y}") && !strings.Contains(pattern, "{z}") {
		return URLTemplate{}, fmt.Errorf("%w: url template %q has no tile placeholders", ErrInvalidConfig, pattern)
	}
	if strings.Contains(pattern, "{s}") && len(subdomains) == 0 {
		return URLTemplate{}, fmt.Errorf("%w: url template %q uses {s} without subdomains", ErrInvalidConfig, pattern)
	}
	return URLTemplate{Pattern: pattern, Subdomains: subdomains}, nil
}

// Expand returns the URL of id.
func (t URLTemplate) Expand(id TileID) string {
	sub := ""
	if n := len(t.Subdomains); n > 0 {
		i := (id.X + id.Y) % n
		if i < 0 {
			i += n
		}
		sub = t.Subdomains[i]
	}
	r := strings.NewReplacer(
		"{x}", strconv.Itoa(id.X),
		"{y}", strconv.Itoa(id.Y),
		"{z}", strconv.Itoa(id.Z),
		"{s}", sub,
	)
	return r.Replace(t.Pattern)
}
