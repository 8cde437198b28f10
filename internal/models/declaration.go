package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Declaration is a snapshot of an external customs filing, captured
// from the Sydonia registry when a control is initiated.
type Declaration struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	DeclarationID    string    `gorm:"type:varchar(100);index;not null" json:"declaration_id"`
	ImporterName     string    `gorm:"type:varchar(255)" json:"importer_name"`
	ImporterAddress  string    `gorm:"type:text" json:"importer_address"`
	GoodsDescription string    `gorm:"type:text" json:"goods_description"`
	OriginCountry    string    `gorm:"type:varchar(100)" json:"origin_country"`
	ValueCFR         float64   `json:"value_cfr"`
	CustomsRegime    string    `gorm:"type:varchar(100)" json:"customs_regime"`
	DeclarationDate  string    `gorm:"type:varchar(20)" json:"declaration_date"`
	CustomsOffice    string    `gorm:"type:varchar(100)" json:"customs_office"`
	TariffCode       *string   `gorm:"type:varchar(20)" json:"tariff_code,omitempty"`
	Weight           *float64  `json:"weight,omitempty"`
	Quantity         *int      `json:"quantity,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// BeforeCreate sets the UUID primary key.
func (d *Declaration) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
