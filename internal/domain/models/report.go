package models

import "time"

// HerdReport is the weekly risk summary stored in MongoDB. Day is Date's
// calendar day in the monitoring zone; one report is kept per day.
type HerdReport struct {
	Day       string    `bson:"day" json:"day"`
	Date      time.Time `bson:"date" json:"date"`
	Pigs      int       `bson:"pigs" json:"pigs"`
	Low       int       `bson:"low" json:"low"`
	Moderate  int       `bson:"moderate" json:"moderate"`
	High      int       `bson:"high" json:"high"`
	Unscored  int       `bson:"unscored" json:"unscored"`
	HighPigs  []string  `bson:"high_pigs" json:"high_pigs"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
