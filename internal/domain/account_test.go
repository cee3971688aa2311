package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_CanDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		want        bool
	}{
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
			want:        true,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
			want:        true,
		},
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			want:        false,
		},
		{
			name:        "debit from empty account",
			balance:     decimal.Zero,
			debitAmount: decimal.RequireFromString("0.01"),
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}
			if got := acc.CanDebit(tt.debitAmount); got != tt.want {
				t.Errorf("CanDebit(%s) = %v, want %v", tt.debitAmount, got, tt.want)
			}
		})
	}
}

func TestAccount_ApplyDebitCredit(t *testing.T) {
	acc := &Account{Balance: decimal.RequireFromString("100.50")}

	if got := acc.ApplyDebit(decimal.RequireFromString("30.25")).StringFixed(2); got != "70.25" {
		t.Errorf("ApplyDebit = %s, want 70.25", got)
	}
	if got := acc.ApplyCredit(decimal.RequireFromString("30.25")).StringFixed(2); got != "130.75" {
		t.Errorf("ApplyCredit = %s, want 130.75", got)
	}

	// Application is pure; the account itself is mutated by the engines only.
	if got := acc.Balance.StringFixed(2); got != "100.50" {
		t.Errorf("balance mutated to %s", got)
	}
}

func TestAccount_OwnedBy(t *testing.T) {
	acc := &Account{UserID: "user-1"}

	if !acc.OwnedBy("user-1") {
		t.Error("expected owner to match")
	}
	if acc.OwnedBy("user-2") {
		t.Error("expected foreign user to be rejected")
	}
}

func TestAccount_IsOperational(t *testing.T) {
	tests := []struct {
		status AccountStatus
		want   bool
	}{
		{AccountStatusActive, true},
		{AccountStatusPending, false},
		{AccountStatusBlocked, false},
		{AccountStatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			acc := &Account{Status: tt.status}
			if got := acc.IsOperational(); got != tt.want {
				t.Errorf("IsOperational() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccountStatus_IsValid(t *testing.T) {
	for _, s := range []AccountStatus{AccountStatusPending, AccountStatusActive, AccountStatusBlocked, AccountStatusClosed} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	if AccountStatus("suspended").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}
