package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequest_Pending(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	item := e.item(t, "Camera", 1, true)

	r := e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-10")
	assert.Equal(t, "PENDING", r.Status)
	assert.Equal(t, "2024-01-05", r.RequestedDate)
	assert.Equal(t, "2024-01-10", r.DueDate)
	assert.Equal(t, "REF000001", r.Reference)
	assert.Nil(t, r.ReturnedDate)
	require.NotNil(t, r.Equipment)
	assert.Equal(t, "Camera", r.Equipment.Name)
	require.NotNil(t, r.User)
	assert.Equal(t, u.ID, r.User.ID)
	assert.Equal(t, fixedNow, r.CreatedAt.UTC())

	// quantity is never decremented
	got, err := e.equipment.Update(context.Background(), item.ID, EquipmentFields{})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}

func TestCreateRequest_EquipmentIDForms(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	item := e.item(t, "Camera", 5, true)
	ctx := context.Background()

	for _, id := range []json.RawMessage{raw(item.ID), raw("1")} {
		_, err := e.requests.CreateRequest(ctx, u.ID, &CreateRequestInput{
			EquipmentID: id, RequestedDate: "2024-01-05", DueDate: "2024-01-06",
		})
		require.NoError(t, err, string(id))
	}

	for _, id := range []json.RawMessage{raw("abc"), raw(0), raw(-1), raw(2.5), json.RawMessage(`null`), nil, raw(true)} {
		_, err := e.requests.CreateRequest(ctx, u.ID, &CreateRequestInput{
			EquipmentID: id, RequestedDate: "2024-01-05", DueDate: "2024-01-06",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidEquipmentID, string(id))
	}
}

func TestCreateRequest_DateValidation(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	item := e.item(t, "Camera", 1, true)

	_, err := e.borrow(t, u.ID, item.ID, "05/01/2024", "2024-01-06")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = e.borrow(t, u.ID, item.ID, "2024-01-10", "2024-01-05")
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// single-day window is fine
	_, err = e.borrow(t, u.ID, item.ID, "2024-01-05", "2024-01-05")
	assert.NoError(t, err)
}

func TestCreateRequest_NotFoundAndUnavailable(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	off := e.item(t, "Projector", 3, false)

	_, err := e.borrow(t, u.ID, 999, "2024-01-05", "2024-01-06")
	assert.ErrorIs(t, err, domain.ErrEquipmentNotFound)

	// unavailable equipment is refused whatever the capacity
	for i := 0; i < 3; i++ {
		_, err = e.borrow(t, u.ID, off.ID, "2024-03-01", "2024-03-02")
		assert.ErrorIs(t, err, domain.ErrEquipmentNotLoaned)
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(e.metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeUnavailable)))
}

func TestCreateRequest_InclusiveOverlap(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	item := e.item(t, "Camera", 1, true)
	e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-10")

	// shares Jan 10
	_, err := e.borrow(t, u.ID, item.ID, "2024-01-10", "2024-01-15")
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "all units are booked")

	// disjoint
	e.mustBorrow(t, u.ID, item.ID, "2024-01-11", "2024-01-15")
}

func TestCreateRequest_CapacityFreedByTerminalStates(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	staff := e.user(t, "sam", "staff")
	item := e.item(t, "Camera", 1, true)
	ctx := context.Background()

	first := e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-10")
	_, err := e.borrow(t, u.ID, item.ID, "2024-01-06", "2024-01-07")
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	_, err = e.requests.SetStatus(ctx, first.ID, staff.ID, &SetStatusInput{Status: "REJECTED"})
	require.NoError(t, err)

	second := e.mustBorrow(t, u.ID, item.ID, "2024-01-06", "2024-01-07")
	_, err = e.requests.ReturnEquipment(ctx, second.ID, u.ID, nil)
	require.NoError(t, err)

	e.mustBorrow(t, u.ID, item.ID, "2024-01-06", "2024-01-07")
}

func TestCreateRequest_ConcurrentAdmissionRespectsQuantity(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	item := e.item(t, "Camera", 2, true)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.requests.CreateRequest(ctx, u.ID, &CreateRequestInput{
				EquipmentID:   raw(item.ID),
				RequestedDate: "2024-02-01",
				DueDate:       "2024-02-05",
			})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	}
	assert.Equal(t, 2, admitted)

	res, err := e.requests.List(ctx, ListRequestsInput{}, page(1, 100))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)
}

func TestSetStatus_Transitions(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	staff := e.user(t, "sam", "staff")
	item := e.item(t, "Camera", 5, true)
	ctx := context.Background()

	r := e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-06")

	notes := "pick up at the office"
	approved, err := e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "approved", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, staff.ID, *approved.ApprovedBy)
	require.NotNil(t, approved.Approver)
	assert.Equal(t, "sam", approved.Approver.Name)
	assert.Equal(t, notes, *approved.Notes)

	_, err = e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "REJECTED"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	returned, err := e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "RETURNED"})
	require.NoError(t, err)
	assert.Equal(t, "RETURNED", returned.Status)
	require.NotNil(t, returned.ReturnedDate)
	assert.Equal(t, "2024-01-10", *returned.ReturnedDate)

	for _, st := range []string{"PENDING", "APPROVED", "REJECTED", "RETURNED"} {
		_, err = e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: st})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, st)
	}
}

func TestSetStatus_Rejects(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	staff := e.user(t, "sam", "staff")
	item := e.item(t, "Camera", 5, true)
	ctx := context.Background()
	r := e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-06")

	_, err := e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = e.requests.SetStatus(ctx, 999, staff.ID, &SetStatusInput{Status: "APPROVED"})
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	ghost := uint(999)
	_, err = e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "APPROVED", ApprovedBy: &ghost})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// explicit approver wins over the caller
	admin := e.user(t, "root", "admin")
	res, err := e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "APPROVED", ApprovedBy: &admin.ID})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, *res.ApprovedBy)
}

func TestReturnEquipment(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ana", "student")
	staff := e.user(t, "sam", "staff")
	item := e.item(t, "Camera", 5, true)
	ctx := context.Background()

	t.Run("from pending", func(t *testing.T) {
		r := e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-06")
		res, err := e.requests.ReturnEquipment(ctx, r.ID, u.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "RETURNED", res.Status)
		require.NotNil(t, res.ReturnedDate)
		assert.Equal(t, "2024-01-10", *res.ReturnedDate)
	})

	t.Run("from approved with notes", func(t *testing.T) {
		r := e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-06")
		_, err := e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "APPROVED"})
		require.NoError(t, err)

		notes := "lens cap missing"
		res, err := e.requests.ReturnEquipment(ctx, r.ID, u.ID, &ReturnInput{Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, "RETURNED", res.Status)
		assert.Equal(t, notes, *res.Notes)
	})

	t.Run("terminal", func(t *testing.T) {
		r := e.mustBorrow(t, u.ID, item.ID, "2024-01-05", "2024-01-06")
		_, err := e.requests.SetStatus(ctx, r.ID, staff.ID, &SetStatusInput{Status: "REJECTED"})
		require.NoError(t, err)

		_, err = e.requests.ReturnEquipment(ctx, r.ID, u.ID, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := e.requests.ReturnEquipment(ctx, 999, u.ID, nil)
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	})
}

func TestListRequests(t *testing.T) {
	e := newEnv(t)
	ana := e.user(t, "ana", "student")
	ben := e.user(t, "ben", "student")
	item := e.item(t, "Ball", 100, true)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		e.mustBorrow(t, ana.ID, item.ID, "2024-01-05", "2024-01-06")
	}
	e.mustBorrow(t, ben.ID, item.ID, "2024-01-05", "2024-01-06")

	res, err := e.requests.List(ctx, ListRequestsInput{UserID: "1"}, page(2, 10))
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, int64(15), res.TotalCount)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, 2, res.TotalPages)

	res, err = e.requests.List(ctx, ListRequestsInput{}, page(1, 10))
	require.NoError(t, err)
	assert.Equal(t, ben.ID, res.Items[0].UserID)

	_, err = e.requests.List(ctx, ListRequestsInput{Status: "LOST"}, page(1, 10))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = e.requests.List(ctx, ListRequestsInput{EquipmentID: "x"}, page(1, 10))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
