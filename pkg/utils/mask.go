package utils

// MaskSecret replaces all but the first few characters of a secret with "***"
// so that passwords and bearer tokens never appear verbatim in logs.
func MaskSecret(s string) string {
	const visible = 4
	if len(s) <= visible {
		return "***"
	}
	return s[:visible] + "***"
}
