package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, part := range []string{Version, GitCommit, BuildTime} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}
