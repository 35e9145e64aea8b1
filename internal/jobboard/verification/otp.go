package verification

import (
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const codeIssuer = "jobboard"

var codeOpts = hotp.ValidateOpts{
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// newCode draws a fresh HOTP secret for one challenge and derives its code.
// Only the secret is kept; the code is recomputed on confirmation.
func newCode(target string) (code, secret string, err error) {
	key, err := hotp.Generate(hotp.GenerateOpts{
		Issuer:      codeIssuer,
		AccountName: target,
		Digits:      codeOpts.Digits,
		Algorithm:   codeOpts.Algorithm,
	})
	if err != nil {
		return "", "", err
	}
	code, err = hotp.GenerateCodeCustom(key.Secret(), 0, codeOpts)
	if err != nil {
		return "", "", err
	}
	return code, key.Secret(), nil
}

// codeMatches compares in constant time.
func codeMatches(code, secret string) bool {
	ok, err := hotp.ValidateCustom(code, 0, secret, codeOpts)
	return err == nil && ok
}
