package attack

import "crypto/tls"

func tlsConfig(insecureSkipVerify bool) *tls.Config {
	return &tls.Config{InsecureSkipVerify: insecureSkipVerify} //nolint:gosec // opt-in for self-signed bench targets
}
