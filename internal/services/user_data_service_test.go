package services

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	"grindsheet/internal/models"
	"grindsheet/internal/testutil"
)

func TestUserData_GetCreatesEmptyDocument(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserDataService(db)

	doc, err := svc.Get(ctx, "a@x.com")
	testutil.AssertNoError(t, err)

	if !reflect.DeepEqual(*doc, models.EmptyDocument()) {
		t.Errorf("expected empty document, got %+v", doc)
	}

	var count int64
	db.Model(&models.UserData{}).Where("email = ?", "a@x.com").Count(&count)
	if count != 1 {
		t.Errorf("expected empty document to be persisted, found %d rows", count)
	}

	// A second fetch must not fail on the existing row.
	_, err = svc.Get(ctx, "a@x.com")
	testutil.AssertNoError(t, err)
}

func TestUserData_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserDataService(db)

	doc := models.Document{
		Sessions: []models.PokerSession{
			testutil.SampleSession(),
			{Date: "2024-01-16T21:00:00Z", Duration: 2, BuyIn: 100, CashOut: 0},
		},
		Goals:        []json.RawMessage{json.RawMessage(`{"name":"Monthly","target":500}`)},
		Transactions: []json.RawMessage{json.RawMessage(`{"amount":-50,"type":"withdrawal"}`)},
	}

	testutil.AssertNoError(t, svc.Put(ctx, "a@x.com", doc))

	got, err := svc.Get(ctx, "a@x.com")
	testutil.AssertNoError(t, err)

	if !reflect.DeepEqual(*got, doc) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *got, doc)
	}
}

func TestUserData_PutReplacesWholeDocument(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserDataService(db)

	first := models.Document{
		Sessions: []models.PokerSession{testutil.SampleSession()},
		Goals:    []json.RawMessage{json.RawMessage(`{"target":1}`)},
	}
	testutil.AssertNoError(t, svc.Put(ctx, "a@x.com", first))

	second := models.Document{Transactions: []json.RawMessage{json.RawMessage(`{"amount":10}`)}}
	testutil.AssertNoError(t, svc.Put(ctx, "a@x.com", second))

	got, err := svc.Get(ctx, "a@x.com")
	testutil.AssertNoError(t, err)

	if len(got.Sessions) != 0 || len(got.Goals) != 0 {
		t.Errorf("expected earlier lists to be replaced, got %+v", got)
	}
	if len(got.Transactions) != 1 {
		t.Errorf("expected one transaction, got %d", len(got.Transactions))
	}
}

func TestUserData_IsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserDataService(db)

	testutil.AssertNoError(t, svc.Put(ctx, "a@x.com", models.Document{Sessions: []models.PokerSession{testutil.SampleSession()}}))

	got, err := svc.Get(ctx, "b@x.com")
	testutil.AssertNoError(t, err)
	if len(got.Sessions) != 0 {
		t.Errorf("expected b@x.com to see an empty document, got %d sessions", len(got.Sessions))
	}
}

func TestUserData_ConcurrentFirstFetch(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserDataService(db)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Get(ctx, "a@x.com")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("fetch %d failed: %v", i, err)
		}
	}

	var count int64
	testutil.AssertNoError(t, db.Model(&models.UserData{}).Where("email = ?", "a@x.com").Count(&count).Error)
	if count != 1 {
		t.Errorf("expected a single document row, found %d", count)
	}
}
