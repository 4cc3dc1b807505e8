package roster

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// Student is a roster entry. RollNumber is the stable, unique identifier.
type Student struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"student_name" json:"student_name"`
	RollNumber string    `db:"roll_number" json:"roll_number"`
	CourseName string    `db:"course_name" json:"course_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"` // UTC
}

func (s Student) String() string {
	return s.RollNumber + " - " + s.Name
}

// NewStudent contains information needed to create a Student.
type NewStudent struct {
	Name       string `json:"student_name" validate:"required,max=100"`
	RollNumber string `json:"roll_number" validate:"required,max=20"`
	CourseName string `json:"course_name" validate:"required,max=100"`
}

// Clean trims surrounding whitespace from every field.
func (ns *NewStudent) Clean() {
	ns.Name = strings.TrimSpace(ns.Name)
	ns.RollNumber = strings.TrimSpace(ns.RollNumber)
	ns.CourseName = strings.TrimSpace(ns.CourseName)
}

// Validate cleans ns and checks it against its validation tags.
func (ns *NewStudent) Validate() error {
	ns.Clean()
	err := validate.Struct(ns)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: jsonName(fe.StructField()), Error: describe(fe)})
	}
	return &ValidationError{Fields: fields}
}

func jsonName(structField string) string {
	switch structField {
	case "Name":
		return "student_name"
	case "RollNumber":
		return "roll_number"
	case "CourseName":
		return "course_name"
	}
	return structField
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "failed on " + fe.Tag()
}

// Filter narrows a roster search. Empty fields match everything.
type Filter struct {
	Search string `form:"search"`
	Course string `form:"course"`
}
