package models

import (
	"errors"
	"fmt"
	"time"
)

// Category distinguishes adult animals from young stock; each has its own temperature band.
type Category string

const (
	CategoryAdult Category = "Adult"
	CategoryYoung Category = "Young"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryAdult || c == CategoryYoung
}

// Pig is the monitored animal.
type Pig struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Category  Category  `bson:"category" json:"category" binding:"required"`
	BreedID   string    `bson:"breed_id" json:"breed_id" binding:"required"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// BreedProfile holds the normal temperature bands (°C) of a breed.
type BreedProfile struct {
	ID           string  `bson:"_id" json:"id"`
	Name         string  `bson:"name" json:"name" binding:"required"`
	MinTempAdult float64 `bson:"min_temp_adult" json:"min_temp_adult"`
	MaxTempAdult float64 `bson:"max_temp_adult" json:"max_temp_adult"`
	MinTempYoung float64 `bson:"min_temp_young" json:"min_temp_young"`
	MaxTempYoung float64 `bson:"max_temp_young" json:"max_temp_young"`
}

// Band returns the normal range for the given category. Anything other than
// Adult is scored against the young-stock band.
func (b BreedProfile) Band(category Category) (min, max float64) {
	if category == CategoryAdult {
		return b.MinTempAdult, b.MaxTempAdult
	}
	return b.MinTempYoung, b.MaxTempYoung
}

// Validate checks the data-entry invariant min < max for both bands.
func (b BreedProfile) Validate() error {
	if b.Name == "" {
		return errors.New("breed name must be provided")
	}
	if b.MinTempAdult >= b.MaxTempAdult {
		return fmt.Errorf("adult band invalid: min %.1f must be below max %.1f", b.MinTempAdult, b.MaxTempAdult)
	}
	if b.MinTempYoung >= b.MaxTempYoung {
		return fmt.Errorf("young band invalid: min %.1f must be below max %.1f", b.MinTempYoung, b.MaxTempYoung)
	}
	return nil
}
