package moderation

import "testing"

func TestBuildRegexpWholeWordCaseInsensitive(t *testing.T) {
	re := buildRegexp([]string{"spam", "eviltag"})
	if re == nil {
		t.Fatal("expected a compiled regexp for a non-empty word list")
	}
	if !re.MatchString("this is SPAM content") {
		t.Error("expected case-insensitive match")
	}
	if re.MatchString("spammer") {
		t.Error("expected whole-word match only, not a substring within spammer")
	}
	if !re.MatchString("contains eviltag here") {
		t.Error("expected match for second word in list")
	}
}

func TestBuildRegexpEmptyListReturnsNil(t *testing.T) {
	if re := buildRegexp(nil); re != nil {
		t.Error("expected nil regexp for empty banned-word list")
	}
}

func TestBuildRegexpEscapesSpecialCharacters(t *testing.T) {
	re := buildRegexp([]string{"a.b*c"})
	if re == nil {
		t.Fatal("expected compiled regexp")
	}
	if re.MatchString("axbyc") {
		t.Error("expected literal dot/star to not act as regex metacharacters")
	}
	if !re.MatchString("contains a.b*c literally") {
		t.Error("expected literal match of the escaped pattern")
	}
}
