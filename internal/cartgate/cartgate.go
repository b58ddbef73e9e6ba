// Package cartgate decides whether a checkout is blocked pending age
// verification. Evaluate is a pure function over a cart snapshot: it never
// calls the broker and trusts only the durable claim the broker's
// collaborator writes onto the buyer identity.
package cartgate

import "strings"

// The exact claim triple that counts as durable proof of verification.
const (
	ClaimNamespace = "audkenni"
	ClaimKey       = "age_verified"
	ClaimValue     = "true"
)

// restrictedTags marks a product as age-restricted outright.
var restrictedTags = map[string]bool{
	"age-restricted": true,
	"alcohol":        true,
	"beer":           true,
}

// restrictedTypeSubstrings flag a product by its type string,
// case-insensitively.
var restrictedTypeSubstrings = []string{"beer", "alcohol"}

// violationMessage is shown to the shopper at checkout.
const violationMessage = "Aldursstaðfesting vantar. Þú verður að staðfesta aldur þinn með Auðkenni til að kaupa áfengi."

// TargetCart scopes a violation to the whole cart rather than one line.
const TargetCart = "cart"

// Cart is a read-only snapshot of the checkout at validation time.
type Cart struct {
	Lines         []Line
	BuyerIdentity *BuyerIdentity
}

type Line struct {
	Merchandise Merchandise
}

type Merchandise struct {
	Product *Product
}

type Product struct {
	Tags        []string
	ProductType string
}

// BuyerIdentity carries zero or more claim records for the customer.
type BuyerIdentity struct {
	Customer *Customer
}

type Customer struct {
	ID     string
	Claims []Claim
}

// Claim is a namespaced key/value assertion attached to a buyer identity.
type Claim struct {
	Namespace string
	Key       string
	Value     string
}

// Violation blocks the order until resolved.
type Violation struct {
	LocalizedMessage string
	Target           string
}

// Evaluate returns the violations blocking checkout. A cart with no
// age-restriction signal always passes, whatever the buyer's claims; a
// restricted cart passes only when the buyer carries the exact verified
// claim triple. At most one violation is produced and it targets the cart,
// not a specific line.
func Evaluate(cart Cart) []Violation {
	if !requiresVerification(cart) {
		return []Violation{}
	}
	if hasVerifiedClaim(cart.BuyerIdentity) {
		return []Violation{}
	}
	return []Violation{{
		LocalizedMessage: violationMessage,
		Target:           TargetCart,
	}}
}

func requiresVerification(cart Cart) bool {
	for _, line := range cart.Lines {
		product := line.Merchandise.Product
		if product == nil {
			continue
		}
		for _, tag := range product.Tags {
			if restrictedTags[tag] {
				return true
			}
		}
		productType := strings.ToLower(product.ProductType)
		for _, sub := range restrictedTypeSubstrings {
			if strings.Contains(productType, sub) {
				return true
			}
		}
	}
	return false
}

func hasVerifiedClaim(identity *BuyerIdentity) bool {
	if identity == nil || identity.Customer == nil {
		return false
	}
	for _, claim := range identity.Customer.Claims {
		if claim.Namespace == ClaimNamespace &&
			claim.Key == ClaimKey &&
			claim.Value == ClaimValue {
			return true
		}
	}
	return false
}
