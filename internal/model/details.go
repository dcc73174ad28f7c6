package model

import (
	"fmt"
	"strings"
)

// Category is one of the fixed catalog categories.
type Category string

// Categories.
const (
	CategoryVinyls           Category = "Vinyls"
	CategoryAntiqueFurniture Category = "Antique Furniture"
	CategoryGPSSportWatches  Category = "GPS Sport Watches"
	CategoryRunningShoes     Category = "Running Shoes"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryVinyls,
	CategoryAntiqueFurniture,
	CategoryGPSSportWatches,
	CategoryRunningShoes,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Attributes is the flat stored and wire form of the category details.
// A nil pointer or empty string means the attribute is absent.
type Attributes struct {
	BatteryLife *int   `json:"batteryLife,omitempty" bson:"batteryLife,omitempty"`
	Age         *int   `json:"age,omitempty" bson:"age,omitempty"`
	Size        string `json:"size,omitempty" bson:"size,omitempty"`
	Material    string `json:"material,omitempty" bson:"material,omitempty"`
}

// Details holds the attributes a category requires.
type Details interface {
	Category() Category
	Attributes() Attributes
}

// VinylDetails are the attributes of a record.
type VinylDetails struct {
	Age int // years since pressing
}

// FurnitureDetails are the attributes of an antique furniture piece.
type FurnitureDetails struct {
	Age      int
	Material string
}

// WatchDetails are the attributes of a GPS sport watch.
type WatchDetails struct {
	BatteryLife int // hours
}

// ShoeDetails are the attributes of a running shoe.
type ShoeDetails struct {
	Size     string
	Material string
}

func (VinylDetails) Category() Category     { return CategoryVinyls }
func (FurnitureDetails) Category() Category { return CategoryAntiqueFurniture }
func (WatchDetails) Category() Category     { return CategoryGPSSportWatches }
func (ShoeDetails) Category() Category      { return CategoryRunningShoes }

func (d VinylDetails) Attributes() Attributes {
	return Attributes{Age: intPtr(d.Age)}
}

func (d FurnitureDetails) Attributes() Attributes {
	return Attributes{Age: intPtr(d.Age), Material: d.Material}
}

func (d WatchDetails) Attributes() Attributes {
	return Attributes{BatteryLife: intPtr(d.BatteryLife)}
}

func (d ShoeDetails) Attributes() Attributes {
	return Attributes{Size: d.Size, Material: d.Material}
}

// ParseDetails builds the details for category from flat attributes.
// Every attribute the category requires must be present and every other
// attribute must be absent.
func ParseDetails(category Category, a Attributes) (Details, error) {
	a.Size = strings.TrimSpace(a.Size)
	a.Material = strings.TrimSpace(a.Material)

	var (
		details Details
		need    attrSet
	)
	switch category {
	case CategoryVinyls:
		need = attrSet{age: true}
		if a.Age != nil {
			details = VinylDetails{Age: *a.Age}
		}
	case CategoryAntiqueFurniture:
		need = attrSet{age: true, material: true}
		if a.Age != nil {
			details = FurnitureDetails{Age: *a.Age, Material: a.Material}
		}
	case CategoryGPSSportWatches:
		need = attrSet{batteryLife: true}
		if a.BatteryLife != nil {
			details = WatchDetails{BatteryLife: *a.BatteryLife}
		}
	case CategoryRunningShoes:
		need = attrSet{size: true, material: true}
		details = ShoeDetails{Size: a.Size, Material: a.Material}
	default:
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	have := attrSet{
		batteryLife: a.BatteryLife != nil,
		age:         a.Age != nil,
		size:        a.Size != "",
		material:    a.Material != "",
	}
	for _, f := range attrFields {
		if f.get(need) && !f.get(have) {
			return nil, fmt.Errorf("%w: %s requires %s", ErrInvalidInput, category, f.name)
		}
		if !f.get(need) && f.get(have) {
			return nil, fmt.Errorf("%w: %s does not take %s", ErrInvalidInput, category, f.name)
		}
	}

	if a.Age != nil && *a.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	if a.BatteryLife != nil && *a.BatteryLife <= 0 {
		return nil, fmt.Errorf("%w: batteryLife must be positive", ErrInvalidInput)
	}

	return details, nil
}

type attrSet struct {
	batteryLife, age, size, material bool
}

var attrFields = []struct {
	name string
	get  func(attrSet) bool
}{
	{"batteryLife", func(s attrSet) bool { return s.batteryLife }},
	{"age", func(s attrSet) bool { return s.age }},
	{"size", func(s attrSet) bool { return s.size }},
	{"material", func(s attrSet) bool { return s.material }},
}

func intPtr(v int) *int { return &v }
