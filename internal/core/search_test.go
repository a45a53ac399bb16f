package core

import "testing"

func TestFilterEvents(t *testing.T) {
	events := []Event{
		{ID: "e1", Title: "Cohen Wedding", Location: "Haifa", Date: NewDate(2024, 3, 7)},
		{ID: "e2", Title: "Bar Mitzvah", Location: "Tel Aviv", Date: NewDate(2024, 11, 2)},
	}
	cases := []struct {
		q    string
		want []string
	}{
		{"", []string{"e1", "e2"}},
		{"wedding", []string{"e1"}},
		{"TEL", []string{"e2"}},
		{"7.3", []string{"e1"}},
		{"nothing", nil},
	}
	for _, tc := range cases {
		t.Run(tc.q, func(t *testing.T) {
			got := FilterEvents(events, tc.q)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("event %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterSuppliersAndBalances(t *testing.T) {
	suppliers := []Supplier{
		{ID: "s1", Name: "Dana", Role: "Drums"},
		{ID: "s2", Name: "Avi", Role: "Sound"},
	}
	if got := FilterSuppliers(suppliers, "dru"); len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("unexpected supplier filter result %+v", got)
	}
	balances := SupplierBalances(suppliers, nil, nil)
	if got := FilterBalances(balances, "avi"); len(got) != 1 || got[0].Supplier.ID != "s2" {
		t.Fatalf("unexpected balance filter result %+v", got)
	}
	if got := FilterBalances(balances, " "); len(got) != 2 {
		t.Fatalf("blank query should keep all balances")
	}
}

func TestGroupEventsByMonth(t *testing.T) {
	events := []Event{
		{ID: "old", Date: NewDate(2024, 1, 3)},
		{ID: "new", Date: NewDate(2024, 5, 20)},
		{ID: "mid", Date: NewDate(2024, 5, 2)},
		{ID: "undated"},
	}
	groups := GroupEventsByMonth(events)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Year != 2024 || groups[0].Month != 5 || len(groups[0].Events) != 2 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[0].Events[0].ID != "new" || groups[0].Events[1].ID != "mid" {
		t.Fatalf("events not sorted newest first: %+v", groups[0].Events)
	}
	if groups[1].Month != 1 || groups[1].Events[0].ID != "old" {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
}

func TestAvailableSuppliers(t *testing.T) {
	suppliers := []Supplier{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}
	ev := Event{Participants: []Participant{{Supplier: Ref{ID: "s2"}}}}
	got := AvailableSuppliers(ev, suppliers)
	if len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s3" {
		t.Fatalf("unexpected available suppliers %+v", got)
	}
}

func TestPopulateReferences(t *testing.T) {
	suppliers := []Supplier{{ID: "s1", Name: "Dana", Role: "Drums"}}
	events := []Event{{ID: "e1", Title: "Wedding", Participants: []Participant{{Supplier: Ref{ID: "s1"}}}}}
	payments := []Payment{{Supplier: Ref{ID: "s1"}, Event: &Ref{ID: "e1"}}}

	PopulateReferences(events, suppliers, payments)

	if got := events[0].Participants[0].Supplier.Label(); got != "Dana (Drums)" {
		t.Fatalf("participant label = %q", got)
	}
	if payments[0].Supplier.Name != "Dana" || payments[0].Event.Title != "Wedding" {
		t.Fatalf("payment refs not populated: %+v", payments[0])
	}
}
