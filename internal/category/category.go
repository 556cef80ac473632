// Package category holds the closed set of transaction types and spending tags.
package category

type Tag string

const (
	Housing          Tag = "Housing"
	Transportation   Tag = "Transportation"
	Food             Tag = "Food"
	Utilities        Tag = "Utilities"
	Insurance        Tag = "Insurance"
	Healthcare       Tag = "Healthcare"
	SavingsAndDebts  Tag = "Savings & Debts"
	PersonalSpending Tag = "Personal Spending"
	Entertainment    Tag = "Entertainment"
	Miscellaneous    Tag = "Miscellaneous"
)

const (
	Income  = "Income"
	Expense = "Expense"
)

// IconDefault is shown for tags outside the enumeration.
const IconDefault = "ic_others"

var tags = []Tag{
	Housing,
	Transportation,
	Food,
	Utilities,
	Insurance,
	Healthcare,
	SavingsAndDebts,
	PersonalSpending,
	Entertainment,
	Miscellaneous,
}

var icons = map[Tag]string{
	Housing:          "ic_housing",
	Transportation:   "ic_transport",
	Food:             "ic_food",
	Utilities:        "ic_utilities",
	Insurance:        "ic_insurance",
	Healthcare:       "ic_medical",
	SavingsAndDebts:  "ic_savings",
	PersonalSpending: "ic_personal_spending",
	Entertainment:    "ic_entertainment",
	Miscellaneous:    IconDefault,
}

// Tags returns the enumeration in display order.
func Tags() []Tag {
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}

// Types returns the storable transaction types.
func Types() []string {
	return []string{Income, Expense}
}

func IsKnown(tag string) bool {
	_, ok := icons[Tag(tag)]
	return ok
}

func IsType(t string) bool {
	return t == Income || t == Expense
}

// Icon returns the icon identifier for a stored tag string.
func Icon(tag string) string {
	if icon, ok := icons[Tag(tag)]; ok {
		return icon
	}
	return IconDefault
}
