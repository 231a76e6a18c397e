package models

import "time"

// Baby is a child profile. Owner is the creating user's username; Caregivers
// holds every username allowed to edit the profile and add entries to it.
type Baby struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Gender            string     `json:"gender"`
	DateOfBirth       time.Time  `json:"dateOfBirth"`
	Weight            *float64   `json:"weight"`
	Height            *float64   `json:"height"`
	HeadCircumference *float64   `json:"headCircumference"`
	Caregivers        StringList `json:"caregivers"`
	Owner             string     `json:"owner"`
	PhotoKey          string     `json:"photoKey,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Measurement is a dated biometric reading for a baby.
type Measurement struct {
	ID                int64     `json:"id"`
	BabyID            int64     `json:"babyId"`
	Author            string    `json:"author"`
	Time              time.Time `json:"time"`
	Weight            *float64  `json:"weight"`
	Height            *float64  `json:"height"`
	HeadCircumference *float64  `json:"headCircumference"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Record is a free-form activity entry (feeding, sleep, diaper...).
type Record struct {
	ID        int64      `json:"id"`
	BabyID    int64      `json:"babyId"`
	Author    string     `json:"author"`
	Type      string     `json:"type"`
	SubType   string     `json:"subType"`
	Note      string     `json:"note"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// GrowthGuide lists developmental milestones for an age bracket.
type GrowthGuide struct {
	ID                  int64      `json:"id"`
	MonthRange          string     `json:"monthRange"`
	AgeDescription      string     `json:"ageDescription"`
	PhysicalDevelopment StringList `json:"physicalDevelopment"`
	CognitiveSocial     StringList `json:"cognitiveSocial"`
	MotorSkills         StringList `json:"motorSkills"`
}
