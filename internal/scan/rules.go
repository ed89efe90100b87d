// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import "regexp"

// sensitiveRules detect personal data that must not leak out of the system:
// emails, phone numbers, and credit card numbers.
func sensitiveRules() []RedactRule {
	return []RedactRule{
		{
			Name:    "email_address",
			Pattern: regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		},
		{
			Name:    "phone_number",
			Pattern: regexp.MustCompile(`\+?\d{1,3}[-. (]?\d{3}[-. )]?\d{3}[-. ]?\d{4}\b`),
		},
		{
			Name:    "credit_card",
			Pattern: regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
		},
	}
}

// maliciousURLPatterns flag URLs that commonly carry exfiltration or
// phishing payloads: credentials embedded in the authority, raw-IP hosts,
// and data URIs with executable content.
func maliciousURLPatterns() []string {
	return []string{
		`(?i)https?://[^\s/@]+:[^\s/@]+@[^\s]+`,
		`(?i)https?://\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?::\d+)?(?:/[^\s]*)?`,
		`(?i)data:text/html;base64,`,
		`(?i)https?://[^\s]+\.(?:zip|mov|country|gq|tk|ml)(?:/[^\s]*)?`,
	}
}
