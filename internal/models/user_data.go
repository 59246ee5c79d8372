package models

import (
	"encoding/json"
	"time"
)

// PokerSession is a single recorded poker session. Amounts are in the
// player's currency units; duration is in hours.
type PokerSession struct {
	Date     string  `json:"date" binding:"required,session_date"`
	Duration float64 `json:"duration" binding:"gt=0,lte=168"`
	BuyIn    float64 `json:"buyIn" binding:"gte=0,lte=1000000"`
	CashOut  float64 `json:"cashOut" binding:"gte=0,lte=1000000"`
	Notes    string  `json:"notes" binding:"max=2000"`
}

// Profit is cash-out minus buy-in.
func (s PokerSession) Profit() float64 {
	return s.CashOut - s.BuyIn
}

// Document is everything a user keeps: poker sessions plus goals and bankroll
// transactions, which the server treats as opaque JSON values.
type Document struct {
	Sessions     []PokerSession    `json:"sessions" binding:"dive"`
	Goals        []json.RawMessage `json:"goals"`
	Transactions []json.RawMessage `json:"transactions"`
}

// EmptyDocument returns a document with every list present and empty.
func EmptyDocument() Document {
	return Document{
		Sessions:     []PokerSession{},
		Goals:        []json.RawMessage{},
		Transactions: []json.RawMessage{},
	}
}

// WithDefaults replaces omitted lists with empty ones.
func (d Document) WithDefaults() Document {
	if d.Sessions == nil {
		d.Sessions = []PokerSession{}
	}
	if d.Goals == nil {
		d.Goals = []json.RawMessage{}
	}
	if d.Transactions == nil {
		d.Transactions = []json.RawMessage{}
	}
	return d
}

// UserData holds one Document per user, replaced wholesale on every save.
type UserData struct {
	Email     string    `gorm:"primaryKey;size:255"`
	Document  Document  `gorm:"serializer:json;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the singular table name used by the migrations.
func (UserData) TableName() string {
	return "user_data"
}
