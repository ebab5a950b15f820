package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/loo7/core"
)

type Student struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Name      string    `json:"name"`
	Age       *int      `json:"age"`
	Contact   *string   `json:"contact"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name    string  `json:"name" validate:"required,notblank,max=200"`
	Age     *int    `json:"age" validate:"omitempty,min=0,max=150"`
	Contact *string `json:"contact" validate:"omitempty,max=200"`
	Notes   *string `json:"notes" validate:"omitempty,max=2000"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Contact = core.CleanStringPtr(ns.Contact)
	ns.Notes = core.CleanStringPtr(ns.Notes)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil fields are left untouched.
type UpdateStudent struct {
	Name    *string `json:"name" validate:"omitempty,notblank,max=200"`
	Age     *int    `json:"age" validate:"omitempty,min=0,max=150"`
	Contact *string `json:"contact" validate:"omitempty,max=200"`
	Notes   *string `json:"notes" validate:"omitempty,max=2000"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	if us.Name != nil {
		name := core.CleanString(*us.Name)
		us.Name = &name
	}
	if us.Contact != nil {
		contact := core.CleanString(*us.Contact)
		us.Contact = &contact
	}
	if us.Notes != nil {
		notes := core.CleanString(*us.Notes)
		us.Notes = &notes
	}
	return validate.Struct(us)
}

// apply copies the set fields of us onto s. Empty contact or notes clear the field.
func (us UpdateStudent) apply(s *Student) {
	if us.Name != nil {
		s.Name = *us.Name
	}
	if us.Age != nil {
		s.Age = us.Age
	}
	if us.Contact != nil {
		s.Contact = core.CleanStringPtr(us.Contact)
	}
	if us.Notes != nil {
		s.Notes = core.CleanStringPtr(us.Notes)
	}
}
