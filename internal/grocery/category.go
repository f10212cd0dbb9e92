// Package grocery derives a categorized shopping list from a weekly menu.
package grocery

// Category groups the items of a shopping list.
type Category string

const (
	Dairy     Category = "dairy"
	Meat      Category = "meat"
	Fish      Category = "fish"
	Fruit     Category = "fruit"
	Vegetable Category = "vegetable"
	Legume    Category = "legume"
	Grain     Category = "grain"
	Nut       Category = "nut"
	Egg       Category = "egg"
	Oil       Category = "oil"
	Other     Category = "other"
)

// Categories lists every category in classification order. The first
// category whose keywords match a line wins.
var Categories = []Category{Dairy, Meat, Fish, Fruit, Vegetable, Legume, Grain, Nut, Egg, Oil, Other}

var categoryLabels = map[Category]string{
	Dairy:     "Lácteos",
	Meat:      "Carnes",
	Fish:      "Pescados y mariscos",
	Fruit:     "Frutas",
	Vegetable: "Verduras y hortalizas",
	Legume:    "Legumbres",
	Grain:     "Cereales y pan",
	Nut:       "Frutos secos",
	Egg:       "Huevos",
	Oil:       "Aceites y condimentos",
	Other:     "Otros",
}

// Label returns the heading shown above the category on the list.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// List maps each non-empty category to its sorted, deduplicated names.
type List map[Category][]string

// Section is one category of a list, in display order.
type Section struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Items    []string `json:"items"`
}

// Sections returns the non-empty categories of the list in classification
// order.
func (l List) Sections() []Section {
	out := make([]Section, 0, len(l))
	for _, c := range Categories {
		items := l[c]
		if len(items) == 0 {
			continue
		}
		out = append(out, Section{Category: c, Label: c.Label(), Items: items})
	}
	return out
}

// Len returns the number of items across all categories.
func (l List) Len() int {
	n := 0
	for _, items := range l {
		n += len(items)
	}
	return n
}
