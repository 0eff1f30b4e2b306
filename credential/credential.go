/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package credential

import (
	"errors"
	"fmt"
)

// MaxLen is the capacity of the credential region and of the keypad buffer.
const MaxLen = 7

var (
	ErrTooLong = errors.New("credential: longer than 7 bytes")
	ErrEmpty   = errors.New("credential: empty")
)

// Credential is a password with an explicit length.
// The zero value is an empty credential.
type Credential struct {
	buf [MaxLen]byte
	n   int
}

// New copies b into a Credential.
func New(b []byte) (Credential, error) {
	var c Credential
	if len(b) > MaxLen {
		return c, ErrTooLong
	}
	c.n = copy(c.buf[:], b)
	return c, nil
}

func (c Credential) Len() int { return c.n }

func (c Credential) Bytes() []byte {
	return append([]byte(nil), c.buf[:c.n]...)
}

// Matches reports whether candidate equals the credential.
func (c Credential) Matches(candidate []byte) bool {
	return Equal(c.buf[:], c.n, candidate, len(candidate))
}

// String never prints the secret.
func (c Credential) String() string {
	return fmt.Sprintf("credential(len=%d)", c.n)
}

// Equal compares (a, la) with (b, lb). The length check and the byte check
// are independent: a shared prefix never matches, and only the explicit
// lengths bound the comparison.
func Equal(a []byte, la int, b []byte, lb int) bool {
	if la != lb {
		return false
	}
	if la < 0 || la > len(a) || lb > len(b) {
		return false
	}
	for i := 0; i < la; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
