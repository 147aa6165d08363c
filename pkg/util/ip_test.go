package util

import "testing"

func TestCIDRNetmask(t *testing.T) {
	tests := []struct {
		cidr    string
		want    string
		wantErr bool
	}{
		{"10.1.1.0/24", "255.255.255.0", false},
		{"192.168.0.0/16", "255.255.0.0", false},
		{"10.0.0.1/32", "255.255.255.255", false},
		{"fd00::/64", "", true},
		{"not-a-cidr", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			got, err := CIDRNetmask(tt.cidr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CIDRNetmask(%q) error = %v, wantErr %v", tt.cidr, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CIDRNetmask(%q) = %q, want %q", tt.cidr, got, tt.want)
			}
		})
	}
}

func TestCIDRPrefixLen(t *testing.T) {
	n, err := CIDRPrefixLen("10.1.1.0/26")
	if err != nil || n != 26 {
		t.Errorf("CIDRPrefixLen = %d, %v", n, err)
	}
}

func TestURIScheme(t *testing.T) {
	tests := []struct {
		uri, scheme, value string
	}{
		{"vlan://100", "vlan", "100"},
		{"pvlan://100-i200", "pvlan", "100-i200"},
		{"PVLAN://5-i6", "pvlan", "5-i6"},
		{"untagged", "", "untagged"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := URIScheme(tt.uri); got != tt.scheme {
			t.Errorf("URIScheme(%q) = %q, want %q", tt.uri, got, tt.scheme)
		}
		if got := URIValue(tt.uri); got != tt.value {
			t.Errorf("URIValue(%q) = %q, want %q", tt.uri, got, tt.value)
		}
	}
}

func TestIsValidIPv4(t *testing.T) {
	if !IsValidIPv4("10.0.0.1") {
		t.Error("10.0.0.1 should be valid")
	}
	if IsValidIPv4("fd00::1") || IsValidIPv4("10.0.0") {
		t.Error("invalid addresses accepted")
	}
}
