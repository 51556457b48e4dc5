package validate

import "testing"

func TestDomain(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"example.com", true},
		{"app.example.co.uk", true},
		{"a-b.example.io", true},
		{"", false},
		{"localhost", false},
		{"-bad.example.com", false},
		{"bad-.example.com", false},
		{"example.c", false},
		{"exa mple.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := Domain(tt.in)
			if (err == nil) != tt.valid {
				t.Errorf("Domain(%q): expected valid=%v, got err=%v", tt.in, tt.valid, err)
			}
		})
	}
}

func TestDomainTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 26; i++ {
		long += "abcdefghi."
	}
	long += "com"
	if err := Domain(long); err == nil || err.Error() != "domain name too long" {
		t.Errorf("expected too long error, got %v", err)
	}
}

func TestPort(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"1", true},
		{"80", true},
		{"65535", true},
		{" 22 ", true},
		{"0", false},
		{"65536", false},
		{"-1", false},
		{"http", false},
		{"", false},
	}
	for _, tt := range tests {
		if err := Port(tt.in); (err == nil) != tt.valid {
			t.Errorf("Port(%q): expected valid=%v, got err=%v", tt.in, tt.valid, err)
		}
	}
}

func TestIP(t *testing.T) {
	for _, ok := range []string{"127.0.0.1", "10.0.0.254", "::1", "::", "2001:db8::1", "localhost"} {
		if err := IP(ok); err != nil {
			t.Errorf("IP(%q) should be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"256.1.1.1", "1.2.3", "host", ""} {
		if err := IP(bad); err == nil {
			t.Errorf("IP(%q) should be invalid", bad)
		}
	}
}

func TestEmail(t *testing.T) {
	for _, ok := range []string{"admin@example.com", "first.last+tag@mail.example.org"} {
		if err := Email(ok); err != nil {
			t.Errorf("Email(%q) should be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "admin", "admin@", "@example.com", "admin@example"} {
		if err := Email(bad); err == nil {
			t.Errorf("Email(%q) should be invalid", bad)
		}
	}
}

func TestURL(t *testing.T) {
	for _, ok := range []string{"http://127.0.0.1:5001", "https://example.com/path?q=1"} {
		if err := URL(ok); err != nil {
			t.Errorf("URL(%q) should be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "ftp://example.com", "example.com", "http://"} {
		if err := URL(bad); err == nil {
			t.Errorf("URL(%q) should be invalid", bad)
		}
	}
}

func TestNormalizeProxyURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"5001", "http://127.0.0.1:5001"},
		{" 3000 ", "http://127.0.0.1:3000"},
		{"localhost:5001", "http://localhost:5001"},
		{"192.168.1.1:3000", "http://192.168.1.1:3000"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://example.com", "HTTPS://example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeProxyURL(tt.in); got != tt.want {
			t.Errorf("NormalizeProxyURL(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestProxyTarget(t *testing.T) {
	got, err := ProxyTarget("8080")
	if err != nil || got != "http://127.0.0.1:8080" {
		t.Errorf("expected loopback target, got %q %v", got, err)
	}
	if _, err := ProxyTarget("bad host:80"); err == nil {
		t.Error("a host with spaces should fail")
	}
}
