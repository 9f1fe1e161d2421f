// internal/domain/settlement/commission.go
package settlement

import "github.com/shopspring/decimal"

// Payment method keys
const (
	MethodCreditCard = "credit_card"
	MethodKakaoPay   = "kakao_pay"
	MethodNaverPay   = "naver_pay"
)

// Payment provider keys
const (
	ProviderTossPayments = "toss_payments"
	ProviderNicePay      = "nice_pay"
)

// DefaultSettlementDays applies to any method missing from methodSettlementDays
const DefaultSettlementDays = 7

var baseRate = decimal.RequireFromString("0.025")

// methodSurcharges holds the method-specific fraction added on top of the base rate.
var methodSurcharges = map[string]decimal.Decimal{
	MethodCreditCard: decimal.RequireFromString("0.01"),
	MethodKakaoPay:   decimal.RequireFromString("0.005"),
	MethodNaverPay:   decimal.RequireFromString("0.008"),
}

// providerFees holds flat per-order fees in whole currency units.
var providerFees = map[string]int64{
	ProviderTossPayments: 100,
	ProviderNicePay:      50,
}

var methodSettlementDays = map[string]int{
	MethodCreditCard: 3,
	MethodKakaoPay:   1,
	MethodNaverPay:   2,
}

// MethodSurcharge returns the surcharge rate for a payment method. Unknown methods pay none.
func MethodSurcharge(method string) decimal.Decimal {
	if rate, ok := methodSurcharges[method]; ok {
		return rate
	}
	return decimal.Zero
}

// ProviderFee returns the flat fee for a payment provider. Unknown providers charge nothing.
func ProviderFee(provider string) int64 {
	return providerFees[provider]
}

// SettlementDays returns the settlement delay in days for a payment method.
func SettlementDays(method string) int {
	if days, ok := methodSettlementDays[method]; ok {
		return days
	}
	return DefaultSettlementDays
}

// Commission computes the amount withheld from an order, rounded to the nearest whole unit.
//
//	commission = amount*0.025 + amount*surcharge(method) + fee(provider)
func Commission(amount int64, method, provider string) int64 {
	a := decimal.NewFromInt(amount)
	total := a.Mul(baseRate).
		Add(a.Mul(MethodSurcharge(method))).
		Add(decimal.NewFromInt(ProviderFee(provider)))
	return total.Round(0).IntPart()
}
