package attack

import (
	"errors"
	"testing"
)

func TestPolicyPrefix(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{Policy{Centrality: Betweenness, FollowGiant: true, Update: true}, "BtwGU"},
		{Policy{Centrality: Betweenness, Update: true}, "BtwU"},
		{Policy{Centrality: Betweenness, FollowGiant: true}, "BtwG"},
		{Policy{Centrality: Degree, Update: true}, "DegU"},
		{Policy{Centrality: Degree, FollowGiant: true, Update: true}, "DegGU"},
		{Policy{Centrality: Degree}, "Deg"},
		{Policy{Centrality: Random, Update: true}, "Ran"},
		{Policy{Centrality: Random, FollowGiant: true, Update: true}, "RanG"},
		{Policy{Centrality: Random}, "Ran"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.policy.Prefix(); got != tt.want {
				t.Errorf("Prefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		prefix string
		want   Policy
	}{
		{"BtwGU", Policy{Centrality: Betweenness, FollowGiant: true, Update: true}},
		{"BtwG", Policy{Centrality: Betweenness, FollowGiant: true}},
		{"DegU", Policy{Centrality: Degree, Update: true}},
		{"Deg", Policy{Centrality: Degree}},
		{"Ran", Policy{Centrality: Random, Update: true}},
		{"RanG", Policy{Centrality: Random, FollowGiant: true, Update: true}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := ParsePolicy(tt.prefix)
			if err != nil {
				t.Fatalf("ParsePolicy(%q) failed: %v", tt.prefix, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %+v, want %+v", tt.prefix, got, tt.want)
			}
			if got.Prefix() != tt.prefix {
				t.Errorf("round trip gave %q", got.Prefix())
			}
		})
	}
}

func TestParsePolicy_Invalid(t *testing.T) {
	for _, prefix := range []string{"", "Bt", "Clo", "BtwX", "RanU", "DegUG", "BtwGUU"} {
		if _, err := ParsePolicy(prefix); !errors.Is(err, ErrUnknownPolicy) {
			t.Errorf("ParsePolicy(%q) error = %v, want ErrUnknownPolicy", prefix, err)
		}
	}
}

func TestParseCentrality(t *testing.T) {
	tests := []struct {
		in   string
		want Centrality
	}{
		{"betweenness", Betweenness},
		{"Degree", Degree},
		{" random ", Random},
		{"btw", Betweenness},
	}
	for _, tt := range tests {
		got, err := ParseCentrality(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseCentrality(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseCentrality("closeness"); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("ParseCentrality(closeness) error = %v", err)
	}
}

func TestPolicyString(t *testing.T) {
	p := Policy{Centrality: Degree, FollowGiant: true}
	if got := p.String(); got != "degree(follow-giant,static)" {
		t.Errorf("String() = %q", got)
	}
}
