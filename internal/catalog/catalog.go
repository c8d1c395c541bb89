// Package catalog loads the category and payment-method options a document
// owner can be assigned, so the parser can only suggest ids that exist.
package catalog

import (
	"context"
	"slices"
)

// Category types.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Category is an expense or income category available to a user.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// PaymentMethod is a payment method available to a user. Global methods
// are shared by every user.
type PaymentMethod struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Global bool   `json:"global"`
}

// Options is the full option set for one user.
type Options struct {
	Categories     []Category      `json:"categories"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
}

// System loads option sets.
type System interface {
	Options(ctx context.Context, userID string) (*Options, error)
}

// CategoryIDs returns the ids of every category.
func (o *Options) CategoryIDs() []int64 {
	ids := make([]int64, len(o.Categories))
	for i, c := range o.Categories {
		ids[i] = c.ID
	}
	return ids
}

// PaymentMethodIDs returns the ids of every payment method.
func (o *Options) PaymentMethodIDs() []int64 {
	ids := make([]int64, len(o.PaymentMethods))
	for i, m := range o.PaymentMethods {
		ids[i] = m.ID
	}
	return ids
}

// Category returns the category with id.
func (o *Options) Category(id int64) (Category, bool) {
	i := slices.IndexFunc(o.Categories, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return Category{}, false
	}
	return o.Categories[i], true
}

// ByType returns the categories of one type, preserving order.
func (o *Options) ByType(typ string) []Category {
	var out []Category
	for _, c := range o.Categories {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}
