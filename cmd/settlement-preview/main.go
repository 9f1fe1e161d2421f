// cmd/settlement-preview/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/your-org/storefront-backend/internal/domain/settlement"
)

// Prints the settlement a single order would produce.
//
//	go run ./cmd/settlement-preview --amount 100000 --method credit_card --provider toss_payments
func main() {
	flags := pflag.NewFlagSet("settlement_preview", pflag.ContinueOnError)
	amount := flags.Int64("amount", 0, "order amount in whole currency units")
	method := flags.String("method", settlement.MethodCreditCard, "payment method key")
	provider := flags.String("provider", "", "payment provider key")
	date := flags.String("date", time.Now().UTC().Format("2006-01-02"), "order date (YYYY-MM-DD)")
	unpaid := flags.Bool("unpaid", false, "treat the payment as not yet confirmed")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *amount < 0 {
		fmt.Fprintln(os.Stderr, "amount must not be negative")
		os.Exit(2)
	}

	orderDate, err := time.ParseInLocation("2006-01-02", *date, time.UTC)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid date %q: %v\n", *date, err)
		os.Exit(2)
	}

	record := settlement.NewRecord(settlement.Input{
		Amount:          *amount,
		PaymentMethod:   *method,
		PaymentProvider: *provider,
		OrderDate:       orderDate,
		Paid:            !*unpaid,
	}, time.Now().UTC())

	fmt.Printf("Order amount:    %d\n", record.OrderAmount)
	fmt.Printf("Surcharge rate:  %s\n", settlement.MethodSurcharge(*method).String())
	fmt.Printf("Provider fee:    %d\n", settlement.ProviderFee(*provider))
	fmt.Printf("Commission:      %d\n", record.Commission)
	fmt.Printf("Net amount:      %d\n", record.NetAmount)
	fmt.Printf("Settles on:      %s (D+%d)\n", record.SettlementDate.Format("2006-01-02"), settlement.SettlementDays(*method))
	fmt.Printf("Status:          %s\n", record.Status)
}
