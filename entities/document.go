package entities

// Document is one record of a logical collection in the remote document store.
// Data holds the flat key/value record as jsonb.
type Document struct {
	Collection string `gorm:"primaryKey;type:varchar(64)" json:"collection"`
	ID         string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Data       string `gorm:"type:jsonb;not null" json:"data"`

	Timestamp
}

func (Document) TableName() string {
	return "documents"
}
