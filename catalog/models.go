package catalog

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/uptrace/bun"
)

// Category groups pies in the storefront.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	CategoryID  int64      `bun:"id,pk,autoincrement" json:"categoryId"`
	Name        string     `bun:"name,notnull" json:"name"`
	Description string     `bun:"description" json:"description,omitempty"`
	DateAdded   *time.Time `bun:"date_added" json:"dateAdded,omitempty"`

	Pies []*Pie `bun:"rel:has-many,join:id=category_id" json:"pies,omitempty"`
}

// Validate checks the category against its column limits.
func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name,
			validation.Required.Error("The name is required."),
			validation.RuneLength(1, 50).Error("The name should be no longer than 50 characters."),
		),
		validation.Field(&c.Description,
			validation.RuneLength(0, 1000).Error("The description should be no longer than 1000 characters."),
		),
	)
}

// Pie is a catalog item. RowVersion is the optimistic concurrency token and
// is only ever assigned by the store.
type Pie struct {
	bun.BaseModel `bun:"table:pies,alias:p"`

	PieID              int64   `bun:"id,pk,autoincrement" json:"pieId"`
	Name               string  `bun:"name,notnull" json:"name"`
	ShortDescription   string  `bun:"short_description" json:"shortDescription"`
	LongDescription    string  `bun:"long_description" json:"longDescription"`
	AllergyInformation string  `bun:"allergy_information" json:"allergyInformation"`
	Price              float64 `bun:"price,notnull" json:"price"`
	ImageURL           string  `bun:"image_url" json:"imageUrl"`
	ImageThumbnailURL  string  `bun:"image_thumbnail_url" json:"imageThumbnailUrl"`
	IsPieOfTheWeek     bool    `bun:"is_pie_of_the_week,notnull" json:"isPieOfTheWeek"`
	InStock            bool    `bun:"in_stock,notnull" json:"inStock"`
	CategoryID         int64   `bun:"category_id,notnull" json:"categoryId"`
	RowVersion         string  `bun:"row_version,notnull" json:"rowVersion"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
}

// Validate checks the pie against its column limits.
func (p Pie) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("The name is required."),
			validation.RuneLength(1, 50).Error("The name should be no longer than 50 characters."),
		),
		validation.Field(&p.ShortDescription, validation.RuneLength(0, 100)),
		validation.Field(&p.LongDescription, validation.RuneLength(0, 1000)),
		validation.Field(&p.AllergyInformation, validation.RuneLength(0, 1000)),
		validation.Field(&p.Price, validation.Min(0.0).Error("The price can't be negative.")),
		validation.Field(&p.ImageURL, validation.RuneLength(0, 200)),
		validation.Field(&p.ImageThumbnailURL, validation.RuneLength(0, 200)),
		validation.Field(&p.CategoryID, validation.Required.Error("A category is required.")),
	)
}

// Order is a historical storefront order.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID      int64     `bun:"order_id,pk,autoincrement" json:"orderId"`
	FirstName    string    `bun:"first_name,notnull" json:"firstName"`
	LastName     string    `bun:"last_name,notnull" json:"lastName"`
	AddressLine1 string    `bun:"address_line1" json:"addressLine1"`
	AddressLine2 string    `bun:"address_line2" json:"addressLine2,omitempty"`
	ZipCode      string    `bun:"zip_code" json:"zipCode"`
	City         string    `bun:"city" json:"city"`
	State        string    `bun:"state" json:"state,omitempty"`
	Country      string    `bun:"country" json:"country"`
	PhoneNumber  string    `bun:"phone_number" json:"phoneNumber"`
	Email        string    `bun:"email" json:"email"`
	OrderTotal   float64   `bun:"order_total,notnull" json:"orderTotal"`
	OrderPlaced  time.Time `bun:"order_placed,notnull" json:"orderPlaced"`

	OrderDetails []*OrderDetail `bun:"rel:has-many,join:order_id=order_id" json:"orderDetails,omitempty"`
}

// OrderDetail is a single line of an order.
type OrderDetail struct {
	bun.BaseModel `bun:"table:order_lines,alias:od"`

	OrderDetailID int64   `bun:"order_detail_id,pk,autoincrement" json:"orderDetailId"`
	OrderID       int64   `bun:"order_id,notnull" json:"orderId"`
	PieID         int64   `bun:"pie_id,notnull" json:"pieId"`
	Amount        int     `bun:"amount,notnull" json:"amount"`
	Price         float64 `bun:"price,notnull" json:"price"`

	Pie *Pie `bun:"rel:belongs-to,join:pie_id=id" json:"pie,omitempty"`
}
