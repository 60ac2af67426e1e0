package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Algorithm is the identifier written into every encoded hash.
const Algorithm = "argon2id"

// Encoded is the parsed form of an encoded hash string.
type Encoded struct {
	Algorithm string
	Version   int
	Params    Argon2idParams
	Salt      []byte
	Key       []byte
}

// Hash derives an Argon2id key for password with a fresh random salt and returns
// the encoded hash string.
func (c Config) Hash(password string) (string, error) {
	return c.hashWithReader(rand.Reader, password)
}

func (c Config) hashWithReader(r io.Reader, password string) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := io.ReadFull(r, salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	return encode(c.Params, salt, key), nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	enc, err := Decode(encodedHash)
	if err != nil {
		return false, err
	}

	// Refuse attacker-sized parameters; older, cheaper hashes still verify.
	if !withinReasonableBounds(enc.Params, c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		enc.Salt,
		enc.Params.Iterations,
		enc.Params.MemoryKiB,
		enc.Params.Parallelism,
		enc.Params.KeyLength,
	)

	return subtle.ConstantTimeCompare(key, enc.Key) == 1, nil
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if uint32(got.Parallelism) > uint32(limits.Parallelism)*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

func encode(p Argon2idParams, salt, key []byte) string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		Algorithm,
		argon2.Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)
}

// Decode parses an encoded hash of the form
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>.
//
// Only the canonical form is accepted: re-encoding the result reproduces the
// input byte for byte.
func Decode(encoded string) (Encoded, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != Algorithm {
		return Encoded{}, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Encoded{}, ErrInvalidHash
	}

	p, err := decodeParams(parts[3])
	if err != nil {
		return Encoded{}, err
	}

	b64 := base64.RawStdEncoding.Strict()
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Encoded{}, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Encoded{}, ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt)) // #nosec G115 -- bounded by the encoded string length.
	p.KeyLength = uint32(len(key))   // #nosec G115 -- bounded by the encoded string length.

	return Encoded{
		Algorithm: parts[1],
		Version:   argon2.Version,
		Params:    p,
		Salt:      salt,
		Key:       key,
	}, nil
}

// decodeParams parses "m=<mem>,t=<iter>,p=<par>" in exactly that order.
func decodeParams(s string) (Argon2idParams, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return Argon2idParams{}, ErrInvalidHash
	}

	var vals [3]uint64
	for i, name := range []string{"m", "t", "p"} {
		raw, ok := strings.CutPrefix(fields[i], name+"=")
		if !ok {
			return Argon2idParams{}, ErrInvalidHash
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || v == 0 {
			return Argon2idParams{}, ErrInvalidHash
		}
		vals[i] = v
	}
	if vals[2] > 255 {
		return Argon2idParams{}, ErrInvalidHash
	}

	p := Argon2idParams{
		MemoryKiB:   uint32(vals[0]),
		Iterations:  uint32(vals[1]),
		Parallelism: uint8(vals[2]),
	}
	// Rejects leading zeros and signs that ParseUint tolerates.
	if fmt.Sprintf("m=%d,t=%d,p=%d", p.MemoryKiB, p.Iterations, p.Parallelism) != s {
		return Argon2idParams{}, ErrInvalidHash
	}
	return p, nil
}
