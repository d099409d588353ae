package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ListingStatusActive  = "active"
	ListingStatusPending = "pending"
	ListingStatusSold    = "sold"

	LeadStatusConverted = "converted"
)

type Listing struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"agent_id"`
	Title     string     `gorm:"size:255" json:"title"`
	Status    string     `gorm:"size:20;not null;index" json:"status"` // 'active', 'pending', 'sold', 'withdrawn'
	Price     float64    `json:"price"`
	ListDate  time.Time  `gorm:"not null" json:"list_date"`
	SaleDate  *time.Time `json:"sale_date,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Lead is a prospect assigned to an agent. SubjectID links it to the
// registered user whose engagement feeds Score.
type Lead struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"agent_id"`
	SubjectID *uuid.UUID `gorm:"type:uuid;index" json:"subject_id,omitempty"`
	Status    string     `gorm:"size:20;not null" json:"status"` // 'new', 'contacted', 'qualified', 'converted', 'lost'
	Score     int        `gorm:"default:0" json:"score"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type Transaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"agent_id"`
	ListingID   *uuid.UUID `gorm:"type:uuid" json:"listing_id,omitempty"`
	SalePrice   float64    `gorm:"not null" json:"sale_price"`
	ClosingDate time.Time  `gorm:"not null" json:"closing_date"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
