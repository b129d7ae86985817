package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/iso20022-payment-hub/internal/domain/payment"
)

// seedRequest mirrors the gateway's create-payment request body.
type seedRequest struct {
	Rail            string `json:"rail"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	DebtorName      string `json:"debtor_name"`
	DebtorAccount   string `json:"debtor_account"`
	CreditorName    string `json:"creditor_name"`
	CreditorAccount string `json:"creditor_account"`
	Purpose         string `json:"purpose,omitempty"`
	Remittance      string `json:"remittance,omitempty"`
}

var purposeCodes = []string{"SUPP", "SALA", "TRAD", "INTC", "GDDS", "SCVE"}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "payment gateway base URL")
		count   = flag.Int("count", 25, "number of payments to create")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	faker := gofakeit.New(*seed)
	rng := rand.New(rand.NewSource(*seed))
	client := &http.Client{Timeout: 10 * time.Second}

	created := 0
	for i := 0; i < *count; i++ {
		rail := payment.Rails[rng.Intn(len(payment.Rails))]
		req := seedRequest{
			Rail:            string(rail),
			Amount:          fmt.Sprintf("%.2f", faker.Price(10, 50000)),
			Currency:        currencyFor(rail, rng),
			DebtorName:      faker.Company(),
			DebtorAccount:   faker.AchAccount(),
			CreditorName:    faker.Company(),
			CreditorAccount: faker.AchAccount(),
		}
		if rng.Float64() < 0.7 {
			req.Purpose = purposeCodes[rng.Intn(len(purposeCodes))]
		}
		if rng.Float64() < 0.5 {
			req.Remittance = fmt.Sprintf("Invoice %s", faker.LetterN(2)+faker.DigitN(6))
		}

		if err := post(client, *baseURL+"/api/v1/payments", req); err != nil {
			fmt.Fprintf(os.Stderr, "payment %d failed: %v\n", i+1, err)
			continue
		}
		created++
	}

	fmt.Printf("Created %d/%d payments against %s\n", created, *count, *baseURL)
	if created < *count {
		os.Exit(1)
	}
}

// currencyFor keeps the seeded data consistent with each rail: the US instant
// rails settle in USD, while SWIFT payments span a few majors.
func currencyFor(rail payment.Rail, rng *rand.Rand) string {
	if rail != payment.RailSwift {
		return "USD"
	}
	majors := []string{"USD", "EUR", "GBP"}
	return majors[rng.Intn(len(majors))]
}

func post(client *http.Client, url string, body seedRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
