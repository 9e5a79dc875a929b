package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "analysis.retry"); got != T("en", "analysis.retry") {
		t.Fatalf("fallback to en failed: %s", got)
	}
}

func TestT_LocalizedGatewayMessages(t *testing.T) {
	for _, locale := range SupportedLocales() {
		for _, key := range []string{"face.connection_error", "analysis.connection_error", "analysis.retry"} {
			if got := T(locale, key); got == key || got == "" {
				t.Fatalf("missing translation for %s/%s", locale, key)
			}
		}
	}
}

func TestT_UnknownKeyReturnsKey(t *testing.T) {
	if got := T("en", "nope.missing"); got != "nope.missing" {
		t.Fatalf("unknown key should echo back, got %s", got)
	}
}
