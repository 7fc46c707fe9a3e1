package domain

import dErrors "vouch/pkg/domain-errors"

// MethodType is the closed set of verification methods. The engine dispatches
// on this enum rather than raw strings so additions are caught at compile time
// wherever Methods() is consulted.
type MethodType string

const (
	MethodDocument     MethodType = "document"
	MethodCommunity    MethodType = "community"
	MethodInPerson     MethodType = "in_person"
	MethodTrustNetwork MethodType = "trust_network"
	MethodActivity     MethodType = "activity"
)

var methodSet = map[MethodType]struct{}{
	MethodDocument:     {},
	MethodCommunity:    {},
	MethodInPerson:     {},
	MethodTrustNetwork: {},
	MethodActivity:     {},
}

// ParseMethodType validates a method type at a trust boundary.
func ParseMethodType(s string) (MethodType, error) {
	m := MethodType(s)
	if _, ok := methodSet[m]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification method: %q", s)
	}
	return m, nil
}

// Methods returns all supported method types in a stable order.
func Methods() []MethodType {
	return []MethodType{
		MethodDocument,
		MethodCommunity,
		MethodInPerson,
		MethodTrustNetwork,
		MethodActivity,
	}
}

func (m MethodType) String() string { return string(m) }

// Valid reports whether m is a member of the closed set.
func (m MethodType) Valid() bool {
	_, ok := methodSet[m]
	return ok
}
