package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// One series row per calendar year. The display number restarts every year
// ("INV-2025-001", ...) while the row keeps the next free sequence.
type InvoiceNumberSeries struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Year      int       `gorm:"uniqueIndex;not null" json:"year"`
	Prefix    string    `gorm:"size:10;not null" json:"prefix"`
	NextSeq   int       `gorm:"not null;default:1" json:"next_seq"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FormatInvoiceNumber renders "PREFIX-YYYY-NNN" with the sequence
// zero-padded to at least 3 digits.
func FormatInvoiceNumber(prefix string, year int, sequence int) string {
	if prefix == "" {
		prefix = "INV"
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, year, sequence)
}

// NextInvoiceNumber reserves the next sequence for the given year. Must run
// inside the caller's transaction: the series row is taken FOR UPDATE so
// two concurrent creates cannot draw the same number. Prefix and starting
// sequence come from settings when the year's row is first created.
func NextInvoiceNumber(tx *gorm.DB, year int) (int, string, error) {
	var series InvoiceNumberSeries
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("year = ?", year).
		First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting, serr := getSettingTx(tx)
		if serr != nil {
			return 0, "", serr
		}
		startSeq := setting.InvoiceStartNumber
		if startSeq < 1 {
			startSeq = 1
		}
		series = InvoiceNumberSeries{
			Year:    year,
			Prefix:  setting.InvoicePrefix,
			NextSeq: startSeq,
		}
		if cerr := tx.Create(&series).Error; cerr != nil {
			return 0, "", cerr
		}
	} else if err != nil {
		return 0, "", err
	}

	sequence := series.NextSeq
	if err := tx.Model(&series).
		UpdateColumn("next_seq", gorm.Expr("next_seq + 1")).Error; err != nil {
		return 0, "", err
	}
	return sequence, FormatInvoiceNumber(series.Prefix, year, sequence), nil
}
