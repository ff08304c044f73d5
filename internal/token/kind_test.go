package token_test

import (
	"testing"

	"waspy/internal/token"
)

func TestKeywordsRoundTripToKinds(t *testing.T) {
	for _, word := range []string{"def", "class", "finally", "None", "nonlocal"} {
		k, ok := token.LookupKeyword(word)
		if !ok || !k.IsKeyword() {
			t.Fatalf("%q: kind=%v ok=%v", word, k, ok)
		}
	}
	if _, ok := token.LookupKeyword("print"); ok {
		t.Fatal("print must not be a keyword")
	}
}

func TestKindStringsAreDefined(t *testing.T) {
	for k := token.Invalid; k <= token.Ellipsis; k++ {
		if k.String() == "unknown token" {
			t.Errorf("kind %d has no display name", k)
		}
	}
	if !token.FloorAssign.IsAugAssign() || token.Assign.IsAugAssign() {
		t.Fatal("IsAugAssign misclassifies")
	}
}
