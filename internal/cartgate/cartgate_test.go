package cartgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineWith(tags []string, productType string) Line {
	return Line{Merchandise: Merchandise{Product: &Product{Tags: tags, ProductType: productType}}}
}

func buyerWith(claims ...Claim) *BuyerIdentity {
	return &BuyerIdentity{Customer: &Customer{ID: "customer-1", Claims: claims}}
}

func verifiedClaim() Claim {
	return Claim{Namespace: ClaimNamespace, Key: ClaimKey, Value: ClaimValue}
}

func TestEvaluateUnrestrictedCart(t *testing.T) {
	tests := []struct {
		name string
		cart Cart
	}{
		{
			name: "empty cart",
			cart: Cart{},
		},
		{
			name: "plain products",
			cart: Cart{Lines: []Line{
				lineWith([]string{"snack"}, "Candy"),
				lineWith(nil, "Soft Drink"),
			}},
		},
		{
			name: "line without product",
			cart: Cart{Lines: []Line{{}}},
		},
		{
			name: "unrestricted cart ignores buyer claims entirely",
			cart: Cart{
				Lines:         []Line{lineWith([]string{"snack"}, "Candy")},
				BuyerIdentity: buyerWith(verifiedClaim()),
			},
		},
		{
			name: "unrestricted cart with no claims",
			cart: Cart{
				Lines:         []Line{lineWith([]string{"snack"}, "Candy")},
				BuyerIdentity: buyerWith(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Evaluate(tt.cart))
		})
	}
}

func TestEvaluateRestrictionSignals(t *testing.T) {
	tests := []struct {
		name string
		line Line
	}{
		{name: "beer tag", line: lineWith([]string{"beer"}, "")},
		{name: "alcohol tag", line: lineWith([]string{"alcohol"}, "")},
		{name: "age-restricted tag", line: lineWith([]string{"age-restricted"}, "")},
		{name: "tag among others", line: lineWith([]string{"new", "beer", "sale"}, "")},
		{name: "product type contains beer", line: lineWith(nil, "Craft Beer")},
		{name: "product type contains alcohol", line: lineWith(nil, "Alcoholic Beverage")},
		{name: "product type case-insensitive", line: lineWith(nil, "BEER")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := Evaluate(Cart{Lines: []Line{tt.line}})
			require.Len(t, violations, 1)
			assert.Equal(t, TargetCart, violations[0].Target)
			assert.NotEmpty(t, violations[0].LocalizedMessage)
		})
	}
}

func TestEvaluateClaimMatching(t *testing.T) {
	restricted := []Line{lineWith([]string{"beer"}, "")}

	tests := []struct {
		name      string
		identity  *BuyerIdentity
		wantBlock bool
	}{
		{
			name:      "exact triple passes",
			identity:  buyerWith(verifiedClaim()),
			wantBlock: false,
		},
		{
			name:      "exact triple among other claims passes",
			identity:  buyerWith(Claim{Namespace: "loyalty", Key: "tier", Value: "gold"}, verifiedClaim()),
			wantBlock: false,
		},
		{
			name:      "no identity blocks",
			identity:  nil,
			wantBlock: true,
		},
		{
			name:      "identity without customer blocks",
			identity:  &BuyerIdentity{},
			wantBlock: true,
		},
		{
			name:      "no claims blocks",
			identity:  buyerWith(),
			wantBlock: true,
		},
		{
			name:      "wrong namespace blocks",
			identity:  buyerWith(Claim{Namespace: "other", Key: ClaimKey, Value: ClaimValue}),
			wantBlock: true,
		},
		{
			name:      "wrong key blocks",
			identity:  buyerWith(Claim{Namespace: ClaimNamespace, Key: "verified", Value: ClaimValue}),
			wantBlock: true,
		},
		{
			name:      "wrong value blocks",
			identity:  buyerWith(Claim{Namespace: ClaimNamespace, Key: ClaimKey, Value: "false"}),
			wantBlock: true,
		},
		{
			name:      "value is not case folded",
			identity:  buyerWith(Claim{Namespace: ClaimNamespace, Key: ClaimKey, Value: "True"}),
			wantBlock: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := Evaluate(Cart{Lines: restricted, BuyerIdentity: tt.identity})
			if tt.wantBlock {
				require.Len(t, violations, 1, "expected exactly one cart-scoped violation")
				assert.Equal(t, TargetCart, violations[0].Target)
			} else {
				assert.Empty(t, violations)
			}
		})
	}
}

func TestEvaluateSingleViolationForManyLines(t *testing.T) {
	// Three restricted lines still produce one violation: the block is
	// cart-scoped.
	cart := Cart{Lines: []Line{
		lineWith([]string{"beer"}, ""),
		lineWith([]string{"alcohol"}, ""),
		lineWith(nil, "Beer"),
	}}

	violations := Evaluate(cart)
	require.Len(t, violations, 1)
	assert.Equal(t, TargetCart, violations[0].Target)
}

func TestEvaluateIsPure(t *testing.T) {
	cart := Cart{
		Lines:         []Line{lineWith([]string{"beer"}, "")},
		BuyerIdentity: buyerWith(),
	}

	first := Evaluate(cart)
	second := Evaluate(cart)
	assert.Equal(t, first, second)
	assert.Len(t, cart.Lines, 1, "input must not be mutated")
	assert.Empty(t, cart.BuyerIdentity.Customer.Claims)
}
