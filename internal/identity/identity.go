// Package identity derives the cloaked numeric signature each agent carries.
// A signature is a semiprime N = p·q whose factors are derived
// deterministically from the agent name. It is a toy identity, not a
// cryptographic one.
package identity

import (
	"encoding/binary"
	"math/big"
	"math/rand"

	"golang.org/x/crypto/blake2b"
)

// DefaultBits is the bit length of N when Generator.Bits is zero.
const DefaultBits = 64

// Identity is a cloaked identity.
type Identity struct {
	N *big.Int
	p *big.Int
	q *big.Int
}

// Verify reports whether p and q are the non-trivial factors of N, in either
// order.
func (id Identity) Verify(p, q *big.Int) bool {
	if id.N == nil || p == nil || q == nil {
		return false
	}
	one := big.NewInt(1)
	if p.Cmp(one) <= 0 || q.Cmp(one) <= 0 {
		return false
	}
	return new(big.Int).Mul(p, q).Cmp(id.N) == 0
}

// Generator builds identities of a fixed size.
type Generator struct {
	Bits int
}

// Generate derives the identity for name. The same name always yields the
// same N.
func (g Generator) Generate(name string) Identity {
	bits := g.Bits
	if bits < 16 {
		bits = DefaultBits
	}
	sum := blake2b.Sum256([]byte(name))
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))

	p := probablePrime(rng, bits/2)
	q := probablePrime(rng, bits-bits/2)
	for q.Cmp(p) == 0 {
		q = probablePrime(rng, bits-bits/2)
	}
	return Identity{N: new(big.Int).Mul(p, q), p: p, q: q}
}

// probablePrime draws an odd candidate with its top bit set and walks up to
// the next probable prime.
func probablePrime(rng *rand.Rand, bits int) *big.Int {
	buf := make([]byte, (bits+7)/8)
	rng.Read(buf)
	n := new(big.Int).SetBytes(buf)

	top := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	mask := new(big.Int).Sub(new(big.Int).Lsh(top, 1), big.NewInt(1))
	n.And(n, mask)
	n.Or(n, top)
	n.SetBit(n, 0, 1)

	two := big.NewInt(2)
	for !n.ProbablyPrime(20) {
		n.Add(n, two)
	}
	return n
}
