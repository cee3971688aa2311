package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransferRequest_ToInput(t *testing.T) {
	req := &TransferRequest{
		AccountID:   "acc-1",
		IBAN:        "UA213223130000026007233566001",
		Amount:      decimal.NewFromFloat(150.25),
		Description: "Rent",
	}

	input := req.ToInput("user-1", "req-42")

	if input.CallerID != "user-1" {
		t.Errorf("CallerID = %q, want user-1", input.CallerID)
	}
	if input.SourceAccountID != "acc-1" {
		t.Errorf("SourceAccountID = %q, want acc-1", input.SourceAccountID)
	}
	if input.DestinationIBAN != req.IBAN {
		t.Errorf("DestinationIBAN = %q, want %q", input.DestinationIBAN, req.IBAN)
	}
	if !input.Amount.Equal(req.Amount) {
		t.Errorf("Amount = %s, want %s", input.Amount, req.Amount)
	}
	if input.Description != "Rent" {
		t.Errorf("Description = %q, want Rent", input.Description)
	}
	if input.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want req-42", input.RequestID)
	}
}

func TestTransferRequest_DecodesDecimalAmount(t *testing.T) {
	var req TransferRequest
	body := `{"account_id":"acc-1","iban":"UA21","amount":"99.99"}`

	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Amount.Equal(decimal.RequireFromString("99.99")) {
		t.Errorf("Amount = %s, want 99.99", req.Amount)
	}
}

func TestDepositRequest_ToInput(t *testing.T) {
	req := &DepositRequest{
		AccountID: "acc-2",
		Amount:    decimal.NewFromInt(500),
	}

	input := req.ToInput("user-2", "req-7")

	if input.CallerID != "user-2" {
		t.Errorf("CallerID = %q, want user-2", input.CallerID)
	}
	if input.AccountID != "acc-2" {
		t.Errorf("AccountID = %q, want acc-2", input.AccountID)
	}
	if !input.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Amount = %s, want 500", input.Amount)
	}
	if input.RequestID != "req-7" {
		t.Errorf("RequestID = %q, want req-7", input.RequestID)
	}
}
