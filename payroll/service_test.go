package payroll_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/gym-settlement/generic"
	"github.com/warp/gym-settlement/payroll"
	"github.com/warp/gym-settlement/store/memory"
)

func newTestService(t *testing.T) *payroll.Service {
	t.Helper()
	svc := payroll.NewService(memory.New(), payroll.Gym{Name: "Iron Temple"}, nil).
		WithClock(func() time.Time { return time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC) })

	_, err := svc.CreateTrainer(context.Background(), payroll.Trainer{
		ID: "trn-1", Name: "Vikram Singh", MonthlySalary: money(30000),
	})
	require.NoError(t, err)
	return svc
}

func TestService_Create_DefaultsSalaryFromTrainer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// GIVEN: A draft without a salary
	d := readyDraft()
	d.MonthlySalary = nil
	d.DiscountDays = intPtr(2)
	incentive := money(1000)
	d.IncentiveAmount = &incentive

	// WHEN: Settling
	st, err := svc.Create(ctx, d)

	// THEN: The trainer's 30000 is used
	require.NoError(t, err)
	assert.Equal(t, "30000.00", st.Input.MonthlySalary.StringFixed())
	assert.Equal(t, "28000.00", st.Figures.FinalPayableAmount.StringFixed())

	got, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Figures.PayableDays, got.Figures.PayableDays)
}

func TestService_Create_OnePerTrainerMonth(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, readyDraft())
	require.NoError(t, err)

	_, err = svc.Create(ctx, readyDraft())
	assert.ErrorIs(t, err, generic.ErrAlreadyExists)
}

func TestService_Create_NotReady(t *testing.T) {
	svc := newTestService(t)
	d := readyDraft()
	d.PresentDays = nil

	_, err := svc.Create(context.Background(), d)
	assert.ErrorIs(t, err, generic.ErrMissingRequiredField)
}

func TestService_Edit_RederivesEveryFigure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	st, err := svc.Create(ctx, readyDraft())
	require.NoError(t, err)
	assert.Equal(t, "25000.00", st.Figures.FinalPayableAmount.StringFixed())

	// WHEN: Attendance is corrected and an advance is recovered
	d := readyDraft()
	d.MonthlySalary = nil
	d.PresentDays = intPtr(28)
	d.Deductions = []payroll.Deduction{{Label: "Advance", Amount: money(1000)}}
	edited, err := svc.Edit(ctx, st.ID, d)

	// THEN: Figures follow the new inputs; identity is unchanged
	require.NoError(t, err)
	assert.Equal(t, st.ID, edited.ID)
	assert.Equal(t, "28000.00", edited.Figures.FinalPayableAmount.StringFixed())
	assert.Equal(t, "27000.00", edited.Figures.NetPayable.StringFixed())

	// Editing into an invalid state is rejected and nothing changes
	d.DiscountDays = intPtr(3)
	_, err = svc.Edit(ctx, st.ID, d)
	assert.ErrorIs(t, err, generic.ErrDiscountExceedsAbsent)

	got, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 28, got.Figures.PresentDays)
}

func TestService_Slip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	st, err := svc.Create(ctx, readyDraft())
	require.NoError(t, err)

	slip, err := svc.Slip(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vikram Singh", slip.Trainer.Name)

	var buf bytes.Buffer
	require.NoError(t, slip.Render(&buf))
	assert.Contains(t, buf.String(), "Twenty Five Thousand Rupees Only")

	_, err = svc.Slip(ctx, "missing")
	assert.True(t, generic.IsNotFound(err))
}

func TestService_List(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, readyDraft())
	require.NoError(t, err)
	d := readyDraft()
	july := generic.SalaryMonth{Year: 2025, Month: time.July}
	d.Month = &july
	_, err = svc.Create(ctx, d)
	require.NoError(t, err)

	list, err := svc.List(ctx, "trn-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-07", list[0].Input.Month.String())

	_, err = svc.List(ctx, "nobody")
	assert.True(t, generic.IsNotFound(err))
}

func TestService_CreateTrainer_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTrainer(ctx, payroll.Trainer{MonthlySalary: money(1000)})
	assert.ErrorIs(t, err, generic.ErrMissingRequiredField)

	_, err = svc.CreateTrainer(ctx, payroll.Trainer{Name: "X"})
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}
