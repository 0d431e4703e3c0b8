package gormrepos

import (
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/datatypes"
)

type userRow struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"not null"`
	Email           string `gorm:"not null;uniqueIndex"`
	PasswordHash    []byte `gorm:"not null"`
	Role            string `gorm:"not null;default:USER"`
	EmailVerifiedAt null.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (userRow) TableName() string { return "users" }

type courseRow struct {
	ID            string `gorm:"primaryKey"`
	InstructorID  string `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Description   null.String
	ImageURL      null.String
	Price         float64 `gorm:"not null;default:0"`
	CategoryID    null.String
	SubCategoryID null.String `gorm:"column:subcategory_id"`
	LevelID       null.String
	IsPublished   bool `gorm:"not null;default:false"`
	IsFree        bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (courseRow) TableName() string { return "courses" }

// Positions are unique per course in the postgres schema through a deferred constraint.
// It is left out of the row model so a reorder may swap positions on databases without deferred constraints.
type sectionRow struct {
	ID              string `gorm:"primaryKey"`
	CourseID        string `gorm:"not null;index"`
	Title           string `gorm:"not null"`
	Description     null.String
	Position        int  `gorm:"not null"`
	IsPublished     bool `gorm:"not null;default:false"`
	IsFree          bool `gorm:"not null;default:false"`
	VideoURL        null.String
	VideoAssetID    null.String
	VideoPlaybackID null.String
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (sectionRow) TableName() string { return "sections" }

type resourceRow struct {
	ID        string `gorm:"primaryKey"`
	SectionID string `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	FileURL   string `gorm:"not null"`
	CreatedAt time.Time
}

func (resourceRow) TableName() string { return "resources" }

type questionRow struct {
	ID        string         `gorm:"primaryKey"`
	SectionID string         `gorm:"not null;index"`
	Text      string         `gorm:"not null"`
	Options   datatypes.JSON `gorm:"not null"`
	Answer    string         `gorm:"not null"`
	CreatedAt time.Time
}

func (questionRow) TableName() string { return "questions" }

type purchaseRow struct {
	ID         string `gorm:"primaryKey"`
	CustomerID string `gorm:"not null;uniqueIndex:purchases_customer_id_course_id_key"`
	CourseID   string `gorm:"not null;uniqueIndex:purchases_customer_id_course_id_key;index"`
	CreatedAt  time.Time
}

func (purchaseRow) TableName() string { return "purchases" }

type progressRow struct {
	ID          string `gorm:"primaryKey"`
	StudentID   string `gorm:"not null;uniqueIndex:progress_student_id_section_id_key"`
	SectionID   string `gorm:"not null;uniqueIndex:progress_student_id_section_id_key;index"`
	IsCompleted bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (progressRow) TableName() string { return "progress" }

type engineerRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (engineerRow) TableName() string { return "engineers" }

type timeSlotRow struct {
	ID         string `gorm:"primaryKey"`
	EngineerID string `gorm:"not null;uniqueIndex:time_slots_engineer_id_day_time_key"`
	Day        string `gorm:"not null;uniqueIndex:time_slots_engineer_id_day_time_key;index"`
	Time       string `gorm:"not null;uniqueIndex:time_slots_engineer_id_day_time_key"`
	Place      string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (timeSlotRow) TableName() string { return "time_slots" }

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
