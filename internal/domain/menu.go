package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MealSlot names one of the five meals of a day.
type MealSlot string

const (
	Breakfast  MealSlot = "breakfast"
	MidMorning MealSlot = "midMorning"
	Lunch      MealSlot = "lunch"
	Snack      MealSlot = "snack"
	Dinner     MealSlot = "dinner"
)

// MealSlots lists the slots in the order of the day.
var MealSlots = []MealSlot{Breakfast, MidMorning, Lunch, Snack, Dinner}

// DaysPerWeek is the length of a day-array menu.
const DaysPerWeek = 7

// DayMenu holds the free text of each meal of one day.
type DayMenu struct {
	Breakfast  string `json:"breakfast,omitempty" bson:"breakfast,omitempty"`
	MidMorning string `json:"midMorning,omitempty" bson:"midMorning,omitempty"`
	Lunch      string `json:"lunch,omitempty" bson:"lunch,omitempty"`
	Snack      string `json:"snack,omitempty" bson:"snack,omitempty"`
	Dinner     string `json:"dinner,omitempty" bson:"dinner,omitempty"`
}

// Slot returns the text of one meal.
func (d DayMenu) Slot(s MealSlot) string {
	switch s {
	case Breakfast:
		return d.Breakfast
	case MidMorning:
		return d.MidMorning
	case Lunch:
		return d.Lunch
	case Snack:
		return d.Snack
	case Dinner:
		return d.Dinner
	}
	return ""
}

// SlotListMenu lists the selected items of each meal plus a free-text tip.
type SlotListMenu struct {
	Breakfast  []string `json:"breakfast,omitempty" bson:"breakfast,omitempty"`
	MidMorning []string `json:"midMorning,omitempty" bson:"midMorning,omitempty"`
	Lunch      []string `json:"lunch,omitempty" bson:"lunch,omitempty"`
	Snack      []string `json:"snack,omitempty" bson:"snack,omitempty"`
	Dinner     []string `json:"dinner,omitempty" bson:"dinner,omitempty"`
	Tip        string   `json:"tip,omitempty" bson:"tip,omitempty"`
}

// Slot returns the items of one meal.
func (m SlotListMenu) Slot(s MealSlot) []string {
	switch s {
	case Breakfast:
		return m.Breakfast
	case MidMorning:
		return m.MidMorning
	case Lunch:
		return m.Lunch
	case Snack:
		return m.Snack
	case Dinner:
		return m.Dinner
	}
	return nil
}

// MenuKind discriminates the two stored shapes of a weekly menu.
type MenuKind int

const (
	MenuEmpty MenuKind = iota
	MenuDayArray
	MenuSlotList
)

// WeeklyMenu is either a list of day records or a map of slot lists. The
// shape is decided once when the value is decoded.
type WeeklyMenu struct {
	days  []DayMenu
	slots *SlotListMenu
}

// NewDayArrayMenu builds a menu of per-day meal texts.
func NewDayArrayMenu(days []DayMenu) WeeklyMenu {
	if days == nil {
		days = []DayMenu{}
	}
	return WeeklyMenu{days: days}
}

// NewSlotListMenu builds a menu of per-slot item lists.
func NewSlotListMenu(m SlotListMenu) WeeklyMenu {
	return WeeklyMenu{slots: &m}
}

// Kind reports which shape the menu holds.
func (m WeeklyMenu) Kind() MenuKind {
	switch {
	case m.slots != nil:
		return MenuSlotList
	case m.days != nil:
		return MenuDayArray
	}
	return MenuEmpty
}

// Days returns the day records of a day-array menu.
func (m WeeklyMenu) Days() []DayMenu {
	return m.days
}

// SlotLists returns the slot lists of a slot-list menu.
func (m WeeklyMenu) SlotLists() (SlotListMenu, bool) {
	if m.slots == nil {
		return SlotListMenu{}, false
	}
	return *m.slots, true
}

// Validate checks the shape rules of a menu about to be stored.
func (m WeeklyMenu) Validate() error {
	switch m.Kind() {
	case MenuEmpty:
		return validationErrorf("menu is empty")
	case MenuDayArray:
		if len(m.days) != DaysPerWeek {
			return validationErrorf("menu needs %d days, got %d", DaysPerWeek, len(m.days))
		}
	}
	return nil
}

var errMenuShape = errors.New("weekly menu must be an array of days or an object of meal lists")

func (m WeeklyMenu) MarshalJSON() ([]byte, error) {
	switch m.Kind() {
	case MenuDayArray:
		return json.Marshal(m.days)
	case MenuSlotList:
		return json.Marshal(m.slots)
	}
	return []byte("null"), nil
}

func (m *WeeklyMenu) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*m = WeeklyMenu{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '[':
		var days []DayMenu
		if err := json.Unmarshal(data, &days); err != nil {
			return fmt.Errorf("weekly menu days: %w", err)
		}
		*m = NewDayArrayMenu(days)
	case '{':
		var slots SlotListMenu
		if err := json.Unmarshal(data, &slots); err != nil {
			return fmt.Errorf("weekly menu slots: %w", err)
		}
		*m = NewSlotListMenu(slots)
	default:
		return errMenuShape
	}
	return nil
}

func (m WeeklyMenu) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch m.Kind() {
	case MenuDayArray:
		return bson.MarshalValue(m.days)
	case MenuSlotList:
		return bson.MarshalValue(m.slots)
	}
	return bson.TypeNull, nil, nil
}

func (m *WeeklyMenu) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	*m = WeeklyMenu{}
	rv := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bson.TypeNull, bson.TypeUndefined:
		return nil
	case bson.TypeArray:
		var days []DayMenu
		if err := rv.Unmarshal(&days); err != nil {
			return fmt.Errorf("weekly menu days: %w", err)
		}
		*m = NewDayArrayMenu(days)
	case bson.TypeEmbeddedDocument:
		var slots SlotListMenu
		if err := rv.Unmarshal(&slots); err != nil {
			return fmt.Errorf("weekly menu slots: %w", err)
		}
		*m = NewSlotListMenu(slots)
	default:
		return errMenuShape
	}
	return nil
}
