package token

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Reference tokens produced by the engine's partitioner for fixed byte
// strings. Any deviation here means token-range comparisons are silently
// corrupt, so these are exact-match assertions.
func TestTokenReferenceVectors(t *testing.T) {
	bigintKey := make([]byte, 8)
	binary.BigEndian.PutUint64(bigintKey, 1234567890123)
	int32Key := make([]byte, 4)
	binary.BigEndian.PutUint32(int32Key, 42)

	tests := []struct {
		name string
		key  []byte
		want int64
	}{
		{"empty", []byte{}, 0},
		{"single zero byte", []byte{0x00}, 5048724184180415669},
		{"short text", []byte("key"), -6847573755651342660},
		{"text with space", []byte("hello world"), 5998619086395760910},
		{"exactly one block", []byte("abcdefghijklmnop"), -4266531025627334877},
		{"one block plus one tail byte", []byte("abcdefghijklmnopq"), 8459014091212432983},
		{"one block plus 15 tail bytes", []byte("abcdefghijklmnopqrstuvwxyz01234"), 5471981472859969704},
		{"high-bit tail bytes", []byte{0xff, 0x80, 0x7f, 0x01, 0xfe}, -3854461416018644599},
		{"two full high-bit blocks", bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 8), -2830820198582146483},
		{"bigint key", bigintKey, 8056999751681019901},
		{"int32 key", int32Key, -7160136740246525330},
		{"composite text key", []byte("user:0001"), 1952144059544649167},
	}

	for _, tt := range tests {
		if got := Token(tt.key); got != tt.want {
			t.Errorf("%s: Token(%v) = %d, want %d", tt.name, tt.key, got, tt.want)
		}
	}
}

func TestTokenNilEqualsEmpty(t *testing.T) {
	if Token(nil) != Token([]byte{}) {
		t.Error("nil and empty keys must hash identically")
	}
}

func TestTokenDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same key always yields the same token", prop.ForAll(
		func(key []byte) bool {
			return Token(key) == Token(key)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("callers cannot perturb the hash via the key slice", prop.ForAll(
		func(key []byte) bool {
			dup := make([]byte, len(key))
			copy(dup, key)
			return Token(key) == Token(dup)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

func BenchmarkToken(b *testing.B) {
	key := bytes.Repeat([]byte("0123456789abcdef"), 4)
	b.SetBytes(int64(len(key)))
	for i := 0; i < b.N; i++ {
		Token(key)
	}
}
