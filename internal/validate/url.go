package validate

import "net/url"

// SafeURL reports whether raw is an absolute http or https URL.
//
// Anything else (javascript:, data:, ftp://, scheme-less hosts, unparsable
// input) is unsafe. The empty string is unsafe too; callers treat an
// explicit empty value as "clear" before consulting the filter.
func SafeURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
