package pkg

import "math/rand/v2"

const randAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandString returns n random alphanumeric characters. Not for secrets.
func RandString(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = randAlphabet[rand.IntN(len(randAlphabet))]
	}

	return string(buf)
}
