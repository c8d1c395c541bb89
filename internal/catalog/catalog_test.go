package catalog_test

import (
	"slices"
	"testing"

	"github.com/trackerzenith/docpipe/internal/catalog"
)

func sampleOptions() *catalog.Options {
	return &catalog.Options{
		Categories: []catalog.Category{
			{ID: 10, Name: "Eating Out", Type: catalog.TypeExpense},
			{ID: 11, Name: "Petrol", Type: catalog.TypeExpense},
			{ID: 20, Name: "Salary", Type: catalog.TypeIncome},
		},
		PaymentMethods: []catalog.PaymentMethod{
			{ID: 1, Name: "Cash", Global: true},
			{ID: 7, Name: "Maybank Visa"},
		},
	}
}

func TestOptionsIDs(t *testing.T) {
	o := sampleOptions()

	if got := o.CategoryIDs(); !slices.Equal(got, []int64{10, 11, 20}) {
		t.Errorf("CategoryIDs() = %v", got)
	}
	if got := o.PaymentMethodIDs(); !slices.Equal(got, []int64{1, 7}) {
		t.Errorf("PaymentMethodIDs() = %v", got)
	}
}

func TestOptionsCategory(t *testing.T) {
	o := sampleOptions()

	c, ok := o.Category(20)
	if !ok || c.Type != catalog.TypeIncome {
		t.Errorf("Category(20) = %+v, %v", c, ok)
	}
	if _, ok := o.Category(99); ok {
		t.Error("Category(99) should not be found")
	}
}

func TestOptionsByType(t *testing.T) {
	o := sampleOptions()

	if got := o.ByType(catalog.TypeExpense); len(got) != 2 || got[0].Name != "Eating Out" {
		t.Errorf("ByType(expense) = %+v", got)
	}
	if got := o.ByType(catalog.TypeIncome); len(got) != 1 {
		t.Errorf("ByType(income) = %+v", got)
	}
}

func TestEmptyOptions(t *testing.T) {
	o := &catalog.Options{}
	if len(o.CategoryIDs()) != 0 || len(o.PaymentMethodIDs()) != 0 {
		t.Error("empty options should yield no ids")
	}
}
