package core

import "strings"

// PaymentMethod identifies how an expense was paid.
type PaymentMethod string

const (
	Card           PaymentMethod = "Card"
	Cash           PaymentMethod = "Cash"
	BankTransfer   PaymentMethod = "BankTransfer"
	MobileTransfer PaymentMethod = "MobileTransfer"
)

// PaymentMethods lists every valid method in display order.
var PaymentMethods = []PaymentMethod{Card, Cash, BankTransfer, MobileTransfer}

func (p PaymentMethod) IsValid() bool {
	switch p {
	case Card, Cash, BankTransfer, MobileTransfer:
		return true
	default:
		return false
	}
}

func (p PaymentMethod) String() string {
	return string(p)
}

// ParsePaymentMethod accepts the canonical names case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	for _, p := range PaymentMethods {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", ErrInvalidPayment
}
