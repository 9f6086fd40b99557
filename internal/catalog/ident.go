package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// SequenceDigits is the width of the numeric suffix of an identifier.
const SequenceDigits = 6

// maxSequence is the largest sequence representable in SequenceDigits.
const maxSequence = 999999

// FormatID builds the identifier for seq within the group/subgroup pair.
func FormatID(group Group, subgroup string, seq int) string {
	return fmt.Sprintf("%s%s%0*d", group, subgroup, SequenceDigits, seq)
}

// ParseID extracts the sequence of id under prefix. It returns
// ErrMalformedIdentifier when id carries the prefix but the rest is not
// exactly SequenceDigits decimal digits.
func ParseID(prefix, id string) (int, error) {
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("%w: %q lacks prefix %q", ErrMalformedIdentifier, id, prefix)
	}
	digits := id[len(prefix):]
	if len(digits) != SequenceDigits {
		return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
		}
	}
	seq, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
	}
	return seq, nil
}

// NextID returns the identifier following the largest well-formed one in
// existing for the (group, subgroup) pair. Identifiers of other pairs are
// ignored, malformed ones under the pair are skipped.
// The result is stable for a given existing set.
func NextID(group Group, subgroup string, existing []string) (string, error) {
	if !group.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	if group.ChapterRank(subgroup) == Unranked {
		return "", fmt.Errorf("%w: %q in %s", ErrUnknownSubgroup, subgroup, group)
	}

	prefix := string(group) + subgroup
	last := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		seq, err := ParseID(prefix, id)
		if err != nil {
			continue
		}
		if seq > last {
			last = seq
		}
	}

	if last >= maxSequence {
		return "", fmt.Errorf("%w: %s", ErrSequenceExhausted, prefix)
	}
	return FormatID(group, subgroup, last+1), nil
}
