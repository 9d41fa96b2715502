package version

import (
	"strings"
	"testing"
)

func TestDefaultsAreSet(t *testing.T) {
	if GetVersion() == "" {
		t.Error("version should not be empty")
	}
	if GetCommit() == "" {
		t.Error("commit should not be empty")
	}
	if GetDate() == "" {
		t.Error("date should not be empty")
	}
}

func TestString_ContainsAllFields(t *testing.T) {
	s := String()
	for _, want := range []string{
		"version=" + GetVersion(),
		"commit=" + GetCommit(),
		"date=" + GetDate(),
	} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, want substring %q", s, want)
		}
	}
}
