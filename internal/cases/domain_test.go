package cases

import "testing"

func TestDomain(t *testing.T) {
	tests := map[string]string{
		"https://a.example":                "a.example",
		"https://www.Council.gov.uk/x?y=1": "council.gov.uk",
		"http://services.nhs.uk":           "services.nhs.uk",
		"council.gov.uk/path":              "council.gov.uk",
		"https://10.0.0.1:8443/":           "10.0.0.1",
		"":                                 "",
		"   ":                              "",
	}
	for in, want := range tests {
		if got := Domain(in); got != want {
			t.Fatalf("Domain(%q) = %q, want %q", in, got, want)
		}
	}
}
