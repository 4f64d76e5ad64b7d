// internal/config/coerce_test.go
//
// Unit-tests for the scalar and sequence coercion helpers.
//
// Run: go test ./internal/config -v

package config

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplitListTrimsAndDropsEmpties(t *testing.T) {
	got := SplitList(" https://a.com , https://b.com ,, https://a.com ,")
	want := []string{"https://a.com", "https://b.com", "https://a.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList = %#v, want %#v", got, want)
	}
}

func TestSplitListEmptyInput(t *testing.T) {
	if got := SplitList(" , ,"); len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
}

func TestSplitSetDeduplicates(t *testing.T) {
	got := SplitSet("a, b, a, c, b")
	if len(got) != 3 {
		t.Fatalf("expected 3 unique members, got %#v", got)
	}
	members := make(map[string]bool)
	for _, m := range got {
		members[m] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !members[want] {
			t.Errorf("member %q missing from %#v", want, got)
		}
	}
}

func TestParseBoolTokens(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "Yes", "on", "t", "y"}
	falsy := []string{"0", "false", "False", "no", "OFF", "f", "n"}
	for _, tok := range truthy {
		got, err := ParseBool("application", "app.debug", tok)
		if err != nil || !got {
			t.Errorf("ParseBool(%q) = %v, %v; want true", tok, got, err)
		}
	}
	for _, tok := range falsy {
		got, err := ParseBool("application", "app.debug", tok)
		if err != nil || got {
			t.Errorf("ParseBool(%q) = %v, %v; want false", tok, got, err)
		}
	}
}

func TestParseBoolRejectsUnknownToken(t *testing.T) {
	_, err := ParseBool("application", "app.debug", "maybe")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Field != "app.debug" {
		t.Errorf("error names field %q, want app.debug", fe.Field)
	}
}

func TestCheckRangePortBounds(t *testing.T) {
	for _, val := range []int{1, 65535} {
		if err := CheckRange("secret", "database.port", val, 1, 65535); err != nil {
			t.Errorf("port %d should pass: %v", val, err)
		}
	}
	for _, val := range []int{0, 65536} {
		err := CheckRange("secret", "database.port", val, 1, 65535)
		var re *RangeError
		if !errors.As(err, &re) {
			t.Fatalf("port %d: expected RangeError, got %v", val, err)
		}
		if re.Value != val || re.Min != 1 || re.Max != 65535 {
			t.Errorf("RangeError carries %d [%d,%d], want %d [1,65535]", re.Value, re.Min, re.Max, val)
		}
	}
}

func TestCheckRangeRedisDBBounds(t *testing.T) {
	for _, val := range []int{0, 15} {
		if err := CheckRange("secret", "redis.db", val, 0, 15); err != nil {
			t.Errorf("db %d should pass: %v", val, err)
		}
	}
	for _, val := range []int{-1, 16} {
		if err := CheckRange("secret", "redis.db", val, 0, 15); err == nil {
			t.Errorf("db %d should fail range validation", val)
		}
	}
}

func TestParseIntRejectsGarbage(t *testing.T) {
	if _, err := ParseInt("application", "server.port", "80a0"); err == nil {
		t.Fatal("expected error for unparsable integer")
	}
	n, err := ParseInt("application", "server.port", " 8080 ")
	if err != nil || n != 8080 {
		t.Fatalf("ParseInt = %d, %v; want 8080", n, err)
	}
}
