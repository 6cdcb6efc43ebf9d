package institution

// Institution is a certificate-issuing organization. The api_url/api_token
// pair is generated on create for future machine-to-machine verification.
type Institution struct {
	ID           int64  `json:"institution_id" gorm:"primaryKey;column:institution_id"`
	Name         string `json:"institution_name" gorm:"column:institution_name;not null"`
	ContactEmail string `json:"contact_email" gorm:"column:contact_email"`
	ContactPhone string `json:"contact_phone" gorm:"column:contact_phone"`
	Address      string `json:"address" gorm:"column:address"`
	APIURL       string `json:"api_url,omitempty" gorm:"column:api_url"`
	APIToken     string `json:"-" gorm:"column:api_token"`
	IsActive     bool   `json:"is_active" gorm:"column:is_active;default:true"`
}

// TableName returns the table name for GORM
func (Institution) TableName() string {
	return "institutions"
}

// PublicView is the listing shape exposed to unauthenticated requesters on
// the verification request form.
type PublicView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (i *Institution) Public() PublicView {
	return PublicView{
		ID:    i.ID,
		Name:  i.Name,
		Email: i.ContactEmail,
	}
}

// Dashboard summarizes verification load for one institution.
type Dashboard struct {
	Institution *Institution `json:"institution"`
	Pending     int64        `json:"pending"`
	Completed   int64        `json:"completed"`
}
