package payroll_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/payroll"
)

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "Zero Rupees Only"},
		{"7", "Seven Rupees Only"},
		{"115", "One Hundred Fifteen Rupees Only"},
		{"28000", "Twenty Eight Thousand Rupees Only"},
		{"128050.50", "One Lakh Twenty Eight Thousand Fifty Rupees and Fifty Paise Only"},
		{"12500000", "One Crore Twenty Five Lakh Rupees Only"},
		{"15178.571428", "Fifteen Thousand One Hundred Seventy Eight Rupees and Fifty Seven Paise Only"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			a, err := generic.ParseMoney(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, payroll.AmountInWords(a))
		})
	}
}

func TestBuildSlip_AndRender(t *testing.T) {
	// GIVEN: The June settlement with an advance deduction
	in := juneInput()
	in.Deductions = []payroll.Deduction{{Label: "Salary advance", Amount: money(2000)}}
	fig, err := payroll.Settle(in)
	require.NoError(t, err)

	st := payroll.Settlement{
		ID:          "set-1",
		TrainerID:   "trn-1",
		Input:       in,
		Figures:     fig,
		PaymentDate: generic.NewTimePoint(2025, time.July, 1),
		PayMode:     payroll.PayBankTransfer,
		Notes:       "June settlement",
	}
	trainer := payroll.Trainer{ID: "trn-1", Name: "Vikram Singh", Designation: "Head Trainer"}
	gym := payroll.Gym{Name: "Iron Temple", Address: "MG Road, Pune", Phone: "020-5550100"}

	// WHEN: Building and rendering the slip
	slip := payroll.BuildSlip(gym, trainer, st)
	var buf bytes.Buffer
	require.NoError(t, slip.Render(&buf))
	out := buf.String()

	// THEN: Currency defaults and every section is printed
	assert.Equal(t, "Rs.", slip.Gym.CurrencySymbol)
	assert.Equal(t, "Twenty Six Thousand Rupees Only", slip.NetInWords)
	assert.Contains(t, out, "Iron Temple")
	assert.Contains(t, out, "SALARY SLIP - June 2025")
	assert.Contains(t, out, "Period        : 2025-06-01 to 2025-06-30")
	assert.Contains(t, out, "Paid On       : 2025-07-01 (BANK_TRANSFER)")
	assert.Contains(t, out, "ATTENDANCE")
	assert.Contains(t, out, "Rs. 27000.00")
	assert.Contains(t, out, "Incentive (PT SESSIONS)")
	assert.Contains(t, out, "Salary advance")
	assert.Contains(t, out, "NET PAYABLE")
	assert.Contains(t, out, "Rs. 26000.00")
	assert.Contains(t, out, "In words: Twenty Six Thousand Rupees Only")
	assert.Contains(t, out, "Notes: June settlement")
}

func TestRender_NoDeductions(t *testing.T) {
	in := juneInput()
	fig, err := payroll.Settle(in)
	require.NoError(t, err)

	slip := payroll.BuildSlip(payroll.Gym{Name: "Gym", CurrencySymbol: "INR"}, payroll.Trainer{ID: "t", Name: "T"},
		payroll.Settlement{ID: "s", Input: in, Figures: fig, PayMode: payroll.PayCash})
	var buf bytes.Buffer
	require.NoError(t, slip.Render(&buf))

	assert.Contains(t, buf.String(), "None")
	assert.Contains(t, buf.String(), "INR 0.00")
	assert.NotContains(t, buf.String(), "Notes:")
}
