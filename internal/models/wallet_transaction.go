package models

// Wallet transaction directions.
const (
	TransactionCredit = "credit"
	TransactionDebit  = "debit"
)

// Wallet transaction statuses.
const (
	TransactionSuccessful = "successful"
	TransactionPending    = "pending"
	TransactionFailed     = "failed"
)

// WalletTransaction is an immutable ledger entry. The unique external
// reference prevents double-crediting the same payment when a provider
// callback is delivered more than once.
type WalletTransaction struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Direction   string  `gorm:"type:varchar(8);not null" json:"direction"`
	Amount      float64 `gorm:"not null" json:"amount"`
	Status      string  `gorm:"type:varchar(16);not null;default:'successful'" json:"status"`
	Description string  `json:"description"`

	Reference string `gorm:"uniqueIndex;not null" json:"reference"`
}
