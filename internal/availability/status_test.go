package availability

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeIsTotal(t *testing.T) {
	cases := []struct {
		name string
		in   *Outcome
		want Status
	}{
		{"never ran", nil, StatusUnknown},
		{"empty outcome", &Outcome{}, StatusUnknown},
		{"available", &Outcome{Status: StatusAvailable}, StatusAvailable},
		{"taken", &Outcome{Status: StatusTaken}, StatusTaken},
		{"garbage status", &Outcome{Status: "maybe"}, StatusUnknown},
		{"transport error", &Outcome{Status: StatusTaken, Err: errors.New("dial tcp: refused")}, StatusUnknown},
		{"deadline", &Outcome{Err: context.DeadlineExceeded}, StatusUnknown},
		{"rejected", &Outcome{Err: fmt.Errorf("label too long: %w", ErrRejected)}, StatusError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if got := ParseStatus(" Taken "); got != StatusTaken {
		t.Fatalf("got %q", got)
	}
	if got := ParseStatus("nope"); got != StatusUnknown {
		t.Fatalf("got %q", got)
	}
}

func TestSourcesStaticOrder(t *testing.T) {
	srcs := Sources()
	if len(srcs) != 17 {
		t.Fatalf("expected 17 sources, got %d", len(srcs))
	}
	if srcs[0] != (Source{Kind: KindDomain, Key: "com"}) {
		t.Fatalf("first source = %v", srcs[0])
	}
	if srcs[6] != (Source{Kind: KindSocial, Key: "instagram"}) {
		t.Fatalf("seventh source = %v", srcs[6])
	}
	if srcs[16] != GitHubSource {
		t.Fatalf("last source = %v", srcs[16])
	}
}
