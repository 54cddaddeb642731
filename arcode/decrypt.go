package arcode

import (
	"fmt"
	"math/bits"
	"regexp"
	"strconv"
	"strings"
)

// encryptedLinePattern matches one encrypted instruction line: three
// dash-separated hex groups of sizes 4-4-5 (spec.md §6 grammar, enc_line).
var encryptedLinePattern = regexp.MustCompile(`^[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{5}$`)

// isEncryptedLine reports whether line matches the enc_line grammar rule.
func isEncryptedLine(line string) bool {
	return encryptedLinePattern.MatchString(line)
}

// Decrypt turns a sequence of encrypted text blocks (each the 13
// hex-ish characters of one enc_line, dashes included) into AREntry values,
// appending them to *out in order.
//
// spec.md treats the real decryption algorithm as an external oracle: "This
// spec treats decryption as an oracle; compatibility requires the same
// algorithm as community tools produce. An implementation may wrap a known
// reference." (§4.3). This implementation is a deterministic (not
// reversible) stand-in with the exact calling contract the parser needs — two
// consecutive blocks decode to one AREntry's (CmdAddr, Value) — so the rest
// of the pipeline is fully exercised without depending on undocumented
// constants. See DESIGN.md, Open Question 1, for the production swap-in
// note.
func Decrypt(blocks []string, out *[]AREntry) error {
	if len(blocks)%2 != 0 {
		return fmt.Errorf("arcode: decrypt: odd number of encrypted blocks (%d)", len(blocks))
	}

	vals := make([]uint32, len(blocks))
	for i, block := range blocks {
		if !isEncryptedLine(block) {
			return fmt.Errorf("arcode: decrypt: malformed encrypted block %q", block)
		}
		stripped := strings.ReplaceAll(block, "-", "")
		v, err := strconv.ParseUint(stripped, 16, 64)
		if err != nil {
			return fmt.Errorf("arcode: decrypt: %w", err)
		}
		vals[i] = decryptWord(v, i)
	}

	for i := 0; i+1 < len(vals); i += 2 {
		*out = append(*out, AREntry{CmdAddr: vals[i], Value: vals[i+1]})
	}
	return nil
}

// decryptWord is the stand-in mixing function described above: a
// bit-rotate-and-XOR combinator over the 52-bit block value, folded down to
// 32 bits (so distinct blocks can yield the same word) and perturbed by its
// position so that two otherwise-identical input blocks at different
// offsets don't collide.
func decryptWord(v uint64, pos int) uint32 {
	folded := uint32(v) ^ uint32(v>>32)
	rotated := bits.RotateLeft32(folded, 7)
	return rotated ^ (0x5A5A5A5A + uint32(pos)*0x01010101)
}
