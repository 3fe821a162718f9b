package models

import "time"

type Carrier struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MCNumber   string    `json:"mcNumber"`
	Favorite   bool      `json:"favorite"`
	UsageCount int       `json:"usageCount"`
	CreatedAt  time.Time `json:"createdAt"`
}
