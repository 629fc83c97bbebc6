package plan

import (
	"fmt"
	"strings"
)

// Tier is the subscription level controlling selection capacity and
// feature access. The set is closed: anything that is not one of the
// three known tiers is rejected at parse time so no unknown tier can
// reach a capacity or feature check.
type Tier int

const (
	Starter Tier = iota
	Standard
	Premium
)

// Unlimited marks a tier with no selection cap.
const Unlimited = -1

// ParseTier converts a wire/config string into a Tier. Unrecognized
// values are a hard error, never a permissive or restrictive default.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "starter":
		return Starter, nil
	case "standard":
		return Standard, nil
	case "premium":
		return Premium, nil
	default:
		return 0, fmt.Errorf("unknown plan tier: %q", s)
	}
}

func (t Tier) String() string {
	switch t {
	case Starter:
		return "starter"
	case Standard:
		return "standard"
	case Premium:
		return "premium"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText renders the tier as its wire name.
func (t Tier) MarshalText() ([]byte, error) {
	switch t {
	case Starter, Standard, Premium:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("unknown plan tier: %d", int(t))
	}
}

// UnmarshalText parses the tier from its wire name.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Capacity returns the maximum number of firms this tier may track at
// once, or Unlimited for premium.
func (t Tier) Capacity() int {
	switch t {
	case Starter:
		return 1
	case Standard:
		return 3
	default:
		return Unlimited
	}
}

// Allows reports whether this tier satisfies a feature's required tier.
// Tiers are totally ordered starter < standard < premium.
func (t Tier) Allows(required Tier) bool {
	return t >= required
}

// RemainingCapacity returns how many more firms may be selected given
// the current selected count. Unlimited tiers always report Unlimited.
// The result never goes negative even when a downgrade left more firms
// selected than the tier allows.
func (t Tier) RemainingCapacity(selected int) int {
	limit := t.Capacity()
	if limit == Unlimited {
		return Unlimited
	}
	if remaining := limit - selected; remaining > 0 {
		return remaining
	}
	return 0
}
